package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// Containment degradation tiers. Each upward crossing logs exactly once.
var containmentTiers = []float64{30, 50, 70}

// hazardSystem applies the drive's side effects while it runs: radiation
// leaking past the shielding, waste heat chewing through equipment, and
// reactor containment decay with its spike rolls. All alerts here are
// edge-triggered; sustained conditions log once, not every tick.
type hazardSystem struct {
	sim *Simulation

	radiationWarned map[string]bool // ship id -> already alerted
	containmentTier map[string]int  // ship id -> highest tier alerted (index+1)
}

func newHazardSystem(s *Simulation) *hazardSystem {
	return &hazardSystem{
		sim:             s,
		radiationWarned: make(map[string]bool),
		containmentTier: make(map[string]int),
	}
}

func (hs *hazardSystem) apply(sh *ship.Ship) bool {
	if sh.EngineState != ship.EngineOnline {
		hs.radiationWarned[sh.ID] = false
		return false
	}
	eng, ok := hs.sim.cat.Engine(sh.EngineKey)
	if !ok {
		return false
	}

	changed := false
	if hs.applyContainment(sh) {
		changed = true
	}
	if hs.applyRadiation(sh, eng) {
		changed = true
	}
	if hs.applyWasteHeat(sh, eng) {
		changed = true
	}
	return changed
}

// applyRadiation damages crew by the radiation that leaks past shielding.
// Crew in medbay patient slots take half damage while a powered medbay is
// operational.
func (hs *hazardSystem) applyRadiation(sh *ship.Ship, eng catalog.EngineDef) bool {
	net := rules.Guard(eng.RadiationOutput - hs.sim.totalShielding(sh))
	if net <= 0 {
		hs.radiationWarned[sh.ID] = false
		return false
	}

	if !hs.radiationWarned[sh.ID] {
		hs.radiationWarned[sh.ID] = true
		hs.sim.appendLog(simlog.CategorySystem, "radiation_leak",
			fmt.Sprintf("%s shielding is insufficient, crew taking radiation", sh.Name), sh.Name,
			map[string]interface{}{"net_radiation": net})
		hs.sim.pushToast(simlog.CategorySystem, sh.Name+": radiation exceeds shielding", sh.Name)
	}

	slots := hs.sim.medbayCapacity(sh)
	dmg := net / 100
	for _, m := range sh.Crew {
		d := dmg
		if slots > 0 && sh.IsAssigned(ship.RoomMedbayPatient, m.ID) {
			d /= 2
		}
		m.Health = rules.ClampPct(m.Health - d)
	}
	return true
}

// applyWasteHeat degrades powered degradable equipment when the drive's
// heat output exceeds radiator capacity.
func (hs *hazardSystem) applyWasteHeat(sh *ship.Ship, eng catalog.EngineDef) bool {
	excess := rules.Guard(eng.WasteHeatOutput - hs.sim.totalDissipation(sh))
	if excess <= 0 {
		return false
	}
	rate := 0.005 * (1 + excess/100)
	changed := false
	for _, eq := range sh.Equipment {
		def, ok := hs.sim.cat.Equipment(eq.DefKey)
		if !ok || !def.Degradable || !eq.Powered {
			continue
		}
		eq.Degradation = rules.ClampPct(eq.Degradation + rate)
		changed = true
	}
	return changed
}

// applyContainment decays containment units while the drive runs (three
// times as fast with the reactor room unstaffed), rolls for spikes above
// 30% wear, and raises one alert per tier crossing.
func (hs *hazardSystem) applyContainment(sh *ship.Ship) bool {
	rate := hs.sim.cat.Balance.ContainmentDegPerTick
	if len(sh.AssignedTo(ship.RoomReactor)) == 0 {
		rate *= 3
	}

	changed := false
	worst := 0.0
	hs.sim.poweredOfKind(sh, catalog.KindContainment, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		eq.Degradation = rules.ClampPct(eq.Degradation + rate)
		changed = true
		if eq.Degradation > worst {
			worst = eq.Degradation
		}

		if eq.Degradation > 30 {
			chance := (eq.Degradation - 30) / 200
			if hs.sim.rng.Float64() < chance {
				dmg := 0.5 * (1 + eq.Degradation/50)
				for _, m := range sh.Crew {
					m.Health = rules.ClampPct(m.Health - dmg)
				}
				hs.sim.appendLog(simlog.CategorySystem, "containment_spike",
					fmt.Sprintf("%s reactor containment spiked at %.0f%% wear", sh.Name, eq.Degradation),
					sh.Name, map[string]interface{}{"degradation": eq.Degradation, "damage": dmg})
			}
		}
	})

	hs.alertContainmentTier(sh, worst)
	return changed
}

// alertContainmentTier logs each threshold crossing exactly once on the way
// up; dropping back under the first tier re-arms all alerts.
func (hs *hazardSystem) alertContainmentTier(sh *ship.Ship, worst float64) {
	tier := 0
	for i, th := range containmentTiers {
		if worst >= th {
			tier = i + 1
		}
	}
	prev := hs.containmentTier[sh.ID]
	if tier == 0 {
		hs.containmentTier[sh.ID] = 0
		return
	}
	for t := prev + 1; t <= tier; t++ {
		th := containmentTiers[t-1]
		hs.sim.appendLog(simlog.CategorySystem, "containment_warning",
			fmt.Sprintf("%s reactor containment past %.0f%% degradation", sh.Name, th), sh.Name,
			map[string]interface{}{"threshold": th, "degradation": worst})
		hs.sim.pushToast(simlog.CategorySystem,
			fmt.Sprintf("%s: containment wear past %.0f%%", sh.Name, th), sh.Name)
	}
	if tier > prev {
		hs.containmentTier[sh.ID] = tier
	}
}
