package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// Cumulative exposure thresholds in seconds (30, 90, 180 days).
var zeroGTierS = []float64{30 * 86400, 90 * 86400, 180 * 86400}

// Morale hit applied once per tier crossing.
var zeroGMoraleHit = []float64{5, 10, 15}

// zeroGSystem tracks cumulative microgravity exposure. Docked ships recover
// at four times the accumulation rate; crossing a tier costs morale and is
// announced once per crossing.
type zeroGSystem struct {
	sim *Simulation
}

func newZeroGSystem(s *Simulation) *zeroGSystem {
	return &zeroGSystem{sim: s}
}

func (zs *zeroGSystem) apply(sh *ship.Ship, dt float64) bool {
	if len(sh.Crew) == 0 {
		return false
	}
	docked := sh.Status == ship.StatusDocked
	for _, m := range sh.Crew {
		if docked {
			m.ZeroGExposureS = rules.Guard(m.ZeroGExposureS - 4*dt)
		} else {
			m.ZeroGExposureS += dt
		}

		tier := exposureTier(m.ZeroGExposureS)
		if tier > m.ZeroGTier {
			hit := zeroGMoraleHit[tier-1]
			m.Morale = rules.ClampPct(m.Morale - hit)
			days := int(zeroGTierS[tier-1] / 86400)
			zs.sim.appendLog(simlog.CategoryCrew, "zerog_deterioration",
				fmt.Sprintf("%s has passed %d days of zero-G exposure", m.Name, days), sh.Name,
				map[string]interface{}{"crew_id": m.ID, "tier": tier})
		}
		// Recovery can lower the tier silently; only deterioration announces.
		m.ZeroGTier = tier
	}
	return true
}

func exposureTier(exposureS float64) int {
	tier := 0
	for i, th := range zeroGTierS {
		if exposureS >= th {
			tier = i + 1
		}
	}
	return tier
}
