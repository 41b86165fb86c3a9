package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
	"github.com/orbitalworks/longhaul/internal/world"
)

// scanAssists samples the planned trajectory at departure time and records
// one gravity assist opportunity per massive body whose closest approach
// falls inside that body's mass-scaled threshold. Opportunities are fixed
// at planning time and resolved as the flight passes them.
func (fs *flightSystem) scanAssists(sh *ship.Ship) {
	fl := sh.Flight
	if fl == nil {
		return
	}
	b := fs.sim.cat.Balance
	samples := b.AssistSamples
	if samples < 2 {
		return
	}
	bodies := fs.sim.world.MassiveBodies(b.AssistMinBodyMassKg)
	if len(bodies) == 0 {
		return
	}

	now := fs.sim.state.GameTimeS
	best := make(map[string]*ship.GravityAssistOpportunity, len(bodies))
	for i := 0; i <= samples; i++ {
		frac := float64(i) / float64(samples)
		pos := world.Lerp(fl.StartPos, fl.EndPos, frac)
		t := now + frac*fl.TotalTimeS
		for _, body := range bodies {
			bodyPos, ok := fs.sim.world.PositionAt(body.Key, t)
			if !ok {
				continue
			}
			d := pos.Sub(bodyPos).Len()
			threshold := rules.AssistThresholdKm(body.MassKg, b.AssistBaseThresholdKm)
			if d > threshold {
				continue
			}
			opp, seen := best[body.Key]
			if !seen || d < opp.ClosestApproachKm {
				best[body.Key] = &ship.GravityAssistOpportunity{
					BodyKey:           body.Key,
					BodyMassKg:        body.MassKg,
					ClosestApproachKm: d,
					ThresholdKm:       threshold,
					Progress:          frac,
				}
			}
		}
	}

	for _, opp := range best {
		fl.Assists = append(fl.Assists, opp)
	}
	if len(fl.Assists) > 0 {
		fs.sim.appendLog(simlog.CategoryNavigation, "assist_window",
			fmt.Sprintf("%s trajectory offers %d gravity assist window(s)", sh.Name, len(fl.Assists)),
			sh.Name, nil)
	}
}

// resolveAssists checks each unresolved opportunity whose trajectory point
// the flight has now passed. One roll decides it; success refunds fuel,
// failure costs fuel, and the pilot learns from either.
func (fs *flightSystem) resolveAssists(sh *ship.Ship) {
	fl := sh.Flight
	if fl == nil {
		return
	}
	progress := fl.Progress()
	b := fs.sim.cat.Balance

	for _, opp := range fl.Assists {
		if opp.Checked || progress < opp.Progress {
			continue
		}
		opp.Checked = true

		pilot := sh.BestPilot()
		skill := 0.0
		if pilot != nil {
			skill = pilot.Skill(crew.SkillPiloting)
		}

		chance := rules.AssistSuccessChance(skill, opp.ClosestApproachKm, opp.ThresholdKm)
		if fs.sim.rng.Float64() < chance {
			opp.Result = ship.AssistSuccess
			refund := rules.AssistFuelRefund(opp.BodyMassKg, opp.ClosestApproachKm, opp.ThresholdKm, skill, b.AssistRefundBaseKg)
			opp.FuelRefundKg = refund
			sh.FuelKg = rules.Clamp(sh.FuelKg+refund, 0, sh.FuelCapacityKg)
			fs.sim.appendLog(simlog.CategoryNavigation, "assist_success",
				fmt.Sprintf("%s slung around %s, recovering %.1f kg of fuel", sh.Name, opp.BodyKey, refund),
				sh.Name, map[string]interface{}{"body": opp.BodyKey, "fuel_refund_kg": refund})
			fs.sim.pushToast(simlog.CategoryNavigation,
				fmt.Sprintf("Gravity assist at %s: %.0f kg fuel recovered", opp.BodyKey, refund), sh.Name)
		} else {
			opp.Result = ship.AssistFailure
			penalty := rules.AssistFuelPenalty(opp.BodyMassKg, opp.ClosestApproachKm, opp.ThresholdKm, b.AssistPenaltyBaseKg)
			opp.FuelPenaltyKg = penalty
			sh.FuelKg = rules.Guard(sh.FuelKg - penalty)
			fs.sim.appendLog(simlog.CategoryNavigation, "assist_failure",
				fmt.Sprintf("%s botched the %s flyby, burning %.1f kg correcting", sh.Name, opp.BodyKey, penalty),
				sh.Name, map[string]interface{}{"body": opp.BodyKey, "fuel_penalty_kg": penalty})
			fs.sim.pushToast(simlog.CategoryNavigation,
				fmt.Sprintf("Gravity assist at %s failed", opp.BodyKey), sh.Name)
		}

		if pilot != nil {
			fs.sim.mastery.award(sh, pilot, crew.SkillPiloting, "assist:"+opp.BodyKey, 25)
		}
	}
}
