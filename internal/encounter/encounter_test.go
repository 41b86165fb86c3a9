package encounter

import (
	"math/rand"
	"testing"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/sim"
)

func encounterShip() *ship.Ship {
	sh := ship.New("s1", "Meridian", "hauler", "ion_drive")
	sh.FuelKg = 500
	m := crew.NewMember("c1", "Okafor", "pilot")
	sh.Crew = []*crew.Member{m}
	return sh
}

func TestResolveAlwaysProducesAnOutcome(t *testing.T) {
	r := NewResolver(logger.NewLogger())
	sh := encounterShip()
	st := &sim.State{Credits: 1000}

	for seed := int64(0); seed < 50; seed++ {
		res := r.Resolve(sh, st, rand.New(rand.NewSource(seed)), true)
		if res == nil {
			t.Fatalf("Expected an outcome for seed %d, got nil", seed)
		}
		if res.ShipID != sh.ID || res.ShipName != sh.Name {
			t.Errorf("Expected result tagged to %s, got %s", sh.ID, res.ShipID)
		}
		if res.Summary == "" {
			t.Errorf("Expected a summary for seed %d", seed)
		}
	}
}

func TestPiratesLossNeverExceedsCredits(t *testing.T) {
	r := NewResolver(logger.NewLogger())
	sh := encounterShip()
	st := &sim.State{Credits: 40}

	sawLoss := false
	for seed := int64(0); seed < 100; seed++ {
		res := r.pirates(sh, st, rand.New(rand.NewSource(seed)))
		if res.CreditsDelta >= 0 {
			continue
		}
		sawLoss = true
		if -res.CreditsDelta > st.Credits {
			t.Errorf("Expected loss capped at %f credits, got %f", st.Credits, -res.CreditsDelta)
		}
		if res.CrewDamage < 2 || res.CrewDamage > 8 {
			t.Errorf("Expected boarding damage in [2,8], got %f", res.CrewDamage)
		}
	}
	if !sawLoss {
		t.Error("Expected at least one lost fight across 100 seeds")
	}
}

func TestDebrisFieldBurnCappedAtFuel(t *testing.T) {
	r := NewResolver(logger.NewLogger())
	sh := encounterShip()
	sh.FuelKg = 3 // below the minimum evasive burn

	for seed := int64(0); seed < 20; seed++ {
		res := r.debrisField(sh, rand.New(rand.NewSource(seed)))
		if res.FuelDeltaKg != -3 {
			t.Errorf("Expected burn capped at the 3 kg aboard, got %f", res.FuelDeltaKg)
		}
	}
}

func TestWindfallRanges(t *testing.T) {
	r := NewResolver(logger.NewLogger())
	sh := encounterShip()

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		if res := r.derelict(sh, rng); res.CreditsDelta < 150 || res.CreditsDelta >= 500 {
			t.Errorf("Expected salvage in [150,500), got %f", res.CreditsDelta)
		}
		if res := r.traderHail(sh, rng); res.CreditsDelta < 50 || res.CreditsDelta >= 200 {
			t.Errorf("Expected trade profit in [50,200), got %f", res.CreditsDelta)
		}
	}
}
