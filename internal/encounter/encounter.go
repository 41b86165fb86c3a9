// Package encounter resolves the hostile and fortuitous meetings a ship can
// run into between ports. It plugs into the simulation through the resolver
// hook so the tick driver never imports combat logic directly.
package encounter

import (
	"fmt"
	"math/rand"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/sim"
)

// Resolver implements sim.EncounterResolver with a weighted table of
// encounter archetypes.
type Resolver struct {
	logger *logger.Logger
}

// NewResolver creates the encounter resolver.
func NewResolver(lg *logger.Logger) *Resolver {
	return &Resolver{logger: lg}
}

// Resolve picks and settles one encounter for an in-flight ship. The
// outcome is returned to the driver, which applies the deltas and buffers
// the result for clients.
func (r *Resolver) Resolve(s *ship.Ship, st *sim.State, rng *rand.Rand, catchUp bool) *sim.EncounterResult {
	if !catchUp {
		r.logger.Info("resolving encounter for", s.Name)
	}
	roll := rng.Float64()
	switch {
	case roll < 0.50:
		return r.pirates(s, st, rng)
	case roll < 0.75:
		return r.debrisField(s, rng)
	case roll < 0.90:
		return r.derelict(s, rng)
	default:
		return r.traderHail(s, rng)
	}
}

// pirates is the hostile case: the outcome hinges on the best pilot's skill
// and a little luck. Winning takes a bounty; losing costs credits and hurts
// the crew.
func (r *Resolver) pirates(s *ship.Ship, st *sim.State, rng *rand.Rand) *sim.EncounterResult {
	skill := 0.0
	if pilot := s.BestPilot(); pilot != nil {
		skill = pilot.Skill(crew.SkillPiloting)
	}
	winChance := 0.35 + skill/200 // 0.35 at zero skill, 0.85 at max

	if rng.Float64() < winChance {
		bounty := 200 + rng.Float64()*400
		return &sim.EncounterResult{
			ShipID:       s.ID,
			ShipName:     s.Name,
			Summary:      fmt.Sprintf("%s drove off a pirate skiff and claimed a %.0f credit bounty", s.Name, bounty),
			CreditsDelta: bounty,
		}
	}

	loss := 100 + rng.Float64()*300
	if loss > st.Credits {
		loss = st.Credits
	}
	return &sim.EncounterResult{
		ShipID:       s.ID,
		ShipName:     s.Name,
		Summary:      fmt.Sprintf("pirates boarded %s, taking %.0f credits", s.Name, loss),
		CreditsDelta: -loss,
		CrewDamage:   2 + rng.Float64()*6,
	}
}

// debrisField costs fuel to dodge through, pilot skill reducing the bill.
func (r *Resolver) debrisField(s *ship.Ship, rng *rand.Rand) *sim.EncounterResult {
	skill := 0.0
	if pilot := s.BestPilot(); pilot != nil {
		skill = pilot.Skill(crew.SkillPiloting)
	}
	burn := (5 + rng.Float64()*20) * (1 - skill/200)
	if burn > s.FuelKg {
		burn = s.FuelKg
	}
	return &sim.EncounterResult{
		ShipID:      s.ID,
		ShipName:    s.Name,
		Summary:     fmt.Sprintf("%s threaded a debris field, burning %.1f kg of fuel evading", s.Name, burn),
		FuelDeltaKg: -burn,
	}
}

// derelict is a salvage windfall.
func (r *Resolver) derelict(s *ship.Ship, rng *rand.Rand) *sim.EncounterResult {
	value := 150 + rng.Float64()*350
	return &sim.EncounterResult{
		ShipID:       s.ID,
		ShipName:     s.Name,
		Summary:      fmt.Sprintf("%s salvaged a drifting derelict worth %.0f credits", s.Name, value),
		CreditsDelta: value,
	}
}

// traderHail is a small friendly trade in passing.
func (r *Resolver) traderHail(s *ship.Ship, rng *rand.Rand) *sim.EncounterResult {
	profit := 50 + rng.Float64()*150
	return &sim.EncounterResult{
		ShipID:       s.ID,
		ShipName:     s.Name,
		Summary:      fmt.Sprintf("%s traded with a passing hauler for %.0f credits", s.Name, profit),
		CreditsDelta: profit,
	}
}
