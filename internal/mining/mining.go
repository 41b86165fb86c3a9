// Package mining turns parked time at minable locations into ore and
// credits. Like combat, it reaches the tick driver only through the
// resolver hook.
package mining

import (
	"math/rand"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/sim"
	"github.com/orbitalworks/longhaul/internal/world"
)

// Resolver implements sim.MiningResolver. Yield depends on rig hardware,
// the crew working the mining room, and which ores the location offers.
type Resolver struct {
	cat    *catalog.Catalog
	logger *logger.Logger
}

// NewResolver creates the mining resolver.
func NewResolver(cat *catalog.Catalog, lg *logger.Logger) *Resolver {
	return &Resolver{cat: cat, logger: lg}
}

// Mine extracts one tick's worth of ore for a parked ship. A ship with no
// powered rig or nobody in the mining room produces nothing.
func (r *Resolver) Mine(s *ship.Ship, loc *world.Location, rng *rand.Rand, catchUp bool) *sim.MiningYield {
	miners := s.AssignedTo(ship.RoomMining)
	if len(miners) == 0 {
		return nil
	}

	rigYield := 0.0
	for _, eq := range s.Equipment {
		if !eq.Powered {
			continue
		}
		def, ok := r.cat.Equipment(eq.DefKey)
		if !ok || def.Kind != catalog.KindMiningRig {
			continue
		}
		rigYield += def.MiningYieldPerTick * (1 - eq.Degradation/100)
	}
	if rigYield <= 0 {
		return nil
	}

	skillSum := 0.0
	for _, m := range miners {
		skillSum += m.Skill(crew.SkillMining)
	}
	crewFactor := 0.5 + skillSum/float64(len(miners))/200

	ore, ok := pickOre(r.cat.Ores(), rng)
	if !ok {
		return nil
	}

	amount := rigYield * crewFactor * (0.8 + rng.Float64()*0.4)
	if amount <= 0 {
		return nil
	}

	return &sim.MiningYield{
		OreKey:       ore.Key,
		AmountKg:     amount,
		CreditsValue: amount * ore.ValuePerKg,
	}
}

// pickOre selects an ore weighted by rarity; commoner ores win more often.
func pickOre(ores []catalog.OreDef, rng *rand.Rand) (catalog.OreDef, bool) {
	total := 0.0
	for _, o := range ores {
		if o.Rarity > 0 {
			total += o.Rarity
		}
	}
	if total <= 0 {
		return catalog.OreDef{}, false
	}
	roll := rng.Float64() * total
	for _, o := range ores {
		if o.Rarity <= 0 {
			continue
		}
		roll -= o.Rarity
		if roll <= 0 {
			return o, true
		}
	}
	return ores[len(ores)-1], true
}
