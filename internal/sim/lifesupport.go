package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// Oxygen alert tiers, most severe first in damage terms. hypoxiaTier maps
// an oxygen level to 0 (fine), 1 (<50), 2 (<25), 3 (<10).
var oxygenTiers = []float64{50, 25, 10}
var oxygenDamage = []float64{0, 0.05, 0.25, 1.0} // HP per crew per tick by tier

// lifeSupportSystem balances oxygen generation against crew consumption,
// burns provisions, and runs the medbay. Alerts are edge-triggered on tier
// transitions.
type lifeSupportSystem struct {
	sim *Simulation

	oxygenTier      map[string]int  // ship id -> last alerted tier
	starvationAlert map[string]bool // ship id -> provisions-empty alerted
}

func newLifeSupportSystem(s *Simulation) *lifeSupportSystem {
	return &lifeSupportSystem{
		sim:             s,
		oxygenTier:      make(map[string]int),
		starvationAlert: make(map[string]bool),
	}
}

func (ls *lifeSupportSystem) apply(sh *ship.Ship) bool {
	if len(sh.Crew) == 0 {
		return false
	}
	changed := ls.applyOxygen(sh)
	if ls.applyProvisions(sh) {
		changed = true
	}
	if ls.applyMedbay(sh) {
		changed = true
	}
	return changed
}

func hypoxiaTier(oxygenPct float64) int {
	tier := 0
	for i, th := range oxygenTiers {
		if oxygenPct < th {
			tier = i + 1
		}
	}
	return tier
}

// applyOxygen nets crew consumption against powered scrubber output and
// applies hypoxia damage by tier.
func (ls *lifeSupportSystem) applyOxygen(sh *ship.Ship) bool {
	b := ls.sim.cat.Balance
	consumed := b.OxygenDepletionPerTick * float64(len(sh.Crew))
	generated := 0.0
	ls.sim.poweredOfKind(sh, catalog.KindLifeSupport, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		generated += def.OxygenGenPerTick * efficiency(eq)
	})

	sh.OxygenPct = rules.ClampPct(sh.OxygenPct - consumed + generated)

	tier := hypoxiaTier(sh.OxygenPct)
	prev := ls.oxygenTier[sh.ID]
	for t := prev + 1; t <= tier; t++ {
		th := oxygenTiers[t-1]
		ls.sim.appendLog(simlog.CategorySystem, "oxygen_low",
			fmt.Sprintf("%s oxygen has dropped below %.0f%%", sh.Name, th), sh.Name,
			map[string]interface{}{"oxygen_pct": sh.OxygenPct})
		ls.sim.pushToast(simlog.CategorySystem,
			fmt.Sprintf("%s: oxygen below %.0f%%", sh.Name, th), sh.Name)
	}
	ls.oxygenTier[sh.ID] = tier

	if dmg := oxygenDamage[tier]; dmg > 0 {
		for _, m := range sh.Crew {
			m.Health = rules.ClampPct(m.Health - dmg)
		}
	}
	return true
}

// applyProvisions consumes food scaled by how unhealthy the crew is, tops
// up for free at trade docks, and starves the crew when stores run dry.
func (ls *lifeSupportSystem) applyProvisions(sh *ship.Ship) bool {
	if sh.Status == ship.StatusDocked {
		if loc, ok := ls.sim.world.Location(sh.LocationKey); ok && loc.Trade {
			if sh.ProvisionsKg < sh.ProvisionsCap {
				sh.ProvisionsKg = sh.ProvisionsCap
				ls.starvationAlert[sh.ID] = false
				return true
			}
			return false
		}
	}

	avgHealth := 0.0
	for _, m := range sh.Crew {
		avgHealth += m.Health
	}
	avgHealth /= float64(len(sh.Crew))

	need := ls.sim.cat.Balance.ProvisionsPerCrewTick * float64(len(sh.Crew)) * (1 + (1 - avgHealth/100))
	sh.ProvisionsKg = rules.Guard(sh.ProvisionsKg - need)

	if sh.ProvisionsKg <= 0 {
		if !ls.starvationAlert[sh.ID] {
			ls.starvationAlert[sh.ID] = true
			ls.sim.appendLog(simlog.CategoryCrew, "provisions_empty",
				sh.Name+" has run out of provisions", sh.Name, nil)
			ls.sim.pushToast(simlog.CategoryCrew, sh.Name+" is out of provisions", sh.Name)
		}
		for _, m := range sh.Crew {
			m.Health = rules.ClampPct(m.Health - 0.1)
		}
	} else {
		ls.starvationAlert[sh.ID] = false
	}
	return true
}

// applyMedbay heals injured crew when a powered medbay has generator power
// behind it.
func (ls *lifeSupportSystem) applyMedbay(sh *ship.Ship) bool {
	if ls.sim.generatorOutputKw(sh) <= 0 {
		return false
	}
	regen := 0.0
	ls.sim.poweredOfKind(sh, catalog.KindMedbay, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		regen += def.HealthRegenPerTick * efficiency(eq)
	})
	if regen <= 0 {
		return false
	}
	changed := false
	for _, m := range sh.Crew {
		if m.Health < 100 {
			m.Health = rules.ClampPct(m.Health + regen)
			changed = true
		}
	}
	return changed
}
