package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// economySystem runs fleet payroll each tick and handles refuel and trade
// flows. Payroll is all-or-nothing: either the whole fleet is paid or no
// one is, so crews share the pain of a shortfall equally.
type economySystem struct {
	sim *Simulation

	shortfallAlert bool
}

func newEconomySystem(s *Simulation) *economySystem {
	return &economySystem{sim: s}
}

// salaryFor computes one member's per-tick pay: the role's base rate scaled
// by the personal multiplier, discounted when their commerce mastery pool
// has reached its halfway checkpoint.
func (es *economySystem) salaryFor(m *crew.Member) float64 {
	role, ok := es.sim.cat.Role(m.Role)
	if !ok {
		return 0
	}
	pay := role.SalaryPerTick * m.SalaryMultiplier
	if ms, exists := m.Mastery[crew.SkillCommerce]; exists {
		pay *= 1 - rules.SalaryDiscount(ms.Pool.FillPct())
	}
	return rules.Guard(pay)
}

// runPayroll settles fleet wages for the tick. On a shortfall, credits
// drain to zero, every salaried member fleet-wide accrues an unpaid tick,
// and the event is announced once until the books recover.
func (es *economySystem) runPayroll() bool {
	type shipBill struct {
		sh    *ship.Ship
		total float64
	}
	var bills []shipBill
	fleetTotal := 0.0
	for _, sh := range es.sim.state.Fleet {
		total := 0.0
		for _, m := range sh.Crew {
			total += es.salaryFor(m)
		}
		if total > 0 {
			bills = append(bills, shipBill{sh, total})
			fleetTotal += total
		}
	}
	if fleetTotal == 0 {
		return false
	}

	if es.sim.state.Credits >= fleetTotal {
		es.sim.state.Credits -= fleetTotal
		for _, b := range bills {
			b.sh.Metrics.CostsPaid += b.total
		}
		es.shortfallAlert = false
		return true
	}

	es.sim.state.Credits = 0
	for _, sh := range es.sim.state.Fleet {
		for _, m := range sh.Crew {
			if es.salaryFor(m) > 0 {
				m.UnpaidTicks++
			}
		}
	}
	if !es.shortfallAlert {
		es.shortfallAlert = true
		es.sim.appendLog(simlog.CategoryFinancial, "salary_shortfall",
			fmt.Sprintf("fleet payroll of %.0f credits could not be met", fleetTotal), "",
			map[string]interface{}{"payroll": fleetTotal})
		es.sim.pushToast(simlog.CategoryFinancial, "Payroll missed: crew going unpaid", "")
	}
	return true
}

// Refuel buys fuel for a docked or orbiting ship at a refuel location.
// Partial fills are allowed when credits run short. A ship adrift mid-flight
// with a dead drive may take an emergency delivery instead; restoring fuel
// restarts the warmup cycle so the flight can resume.
func (s *Simulation) Refuel(shipID string, amountKg float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh := s.state.ShipByID(shipID)
	if sh == nil {
		return 0, fmt.Errorf("refuel: unknown ship %q", shipID)
	}
	adrift := sh.InFlight()
	if adrift && sh.EngineState != ship.EngineOff {
		return 0, fmt.Errorf("refuel: %s is under way", sh.Name)
	}
	if !adrift {
		loc, ok := s.world.Location(sh.LocationKey)
		if !ok || !loc.Refuel {
			return 0, fmt.Errorf("refuel: no fuel depot at %s", sh.LocationKey)
		}
	}

	amount := rules.Guard(amountKg)
	if room := sh.FuelCapacityKg - sh.FuelKg; amount > room {
		amount = room
	}
	price := s.cat.Balance.FuelPricePerKg
	if price > 0 && amount*price > s.state.Credits {
		amount = s.state.Credits / price
	}
	if amount <= 0 {
		return 0, fmt.Errorf("refuel: nothing affordable to load aboard %s", sh.Name)
	}

	cost := amount * price
	s.state.Credits -= cost
	sh.FuelKg += amount
	sh.Metrics.CostsPaid += cost
	if sh.Stranded && sh.FuelKg > 0 {
		sh.Stranded = false
		s.scans.strandedAlert[sh.ID] = false
	}
	if adrift && sh.FuelKg > 0 {
		sh.EngineState = ship.EngineWarmingUp
		sh.WarmupPct = 0
		s.appendLog(simlog.CategorySystem, "engine_rewarm",
			sh.Name+" is re-warming its drive after an emergency refuel", sh.Name, nil)
	}

	s.appendLog(simlog.CategoryFinancial, "refuel",
		fmt.Sprintf("%s loaded %.0f kg of fuel for %.0f credits", sh.Name, amount, cost), sh.Name,
		map[string]interface{}{"amount_kg": amount, "cost": cost})
	return amount, nil
}
