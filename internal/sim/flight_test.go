package sim

import (
	"testing"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

func TestDepartValidation(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	s.AddShip(sh)

	if err := s.Depart("nope", "port_b"); err == nil {
		t.Error("Expected error for unknown ship")
	}
	if err := s.Depart(sh.ID, "nowhere"); err == nil {
		t.Error("Expected error for unknown destination")
	}
	if err := s.Depart(sh.ID, "port_a"); err == nil {
		t.Error("Expected error for departing to the current location")
	}

	sh.FuelKg = 0
	if err := s.Depart(sh.ID, "port_b"); err == nil {
		t.Error("Expected error for empty tanks")
	}
	sh.FuelKg = 10_000

	if err := s.Depart(sh.ID, "port_b"); err != nil {
		t.Fatalf("Expected valid departure to succeed, got %v", err)
	}
	if err := s.Depart(sh.ID, "port_a"); err == nil {
		t.Error("Expected error for departing while in flight")
	}
}

func TestDepartStartsWarmupAndFlightPlan(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	s.AddShip(sh)

	if err := s.Depart(sh.ID, "port_b"); err != nil {
		t.Fatalf("Depart failed: %v", err)
	}
	if sh.Status != ship.StatusInFlight {
		t.Errorf("Expected status in_flight, got %s", sh.Status)
	}
	if sh.EngineState != ship.EngineWarmingUp {
		t.Errorf("Expected cold engine to start warming, got %s", sh.EngineState)
	}
	if sh.Flight == nil || sh.Flight.TotalDistanceKm <= 0 || sh.Flight.TotalTimeS <= 0 {
		t.Fatal("Expected a populated flight plan")
	}
	if sh.Flight.DestinationKey != "port_b" {
		t.Errorf("Expected destination port_b, got %s", sh.Flight.DestinationKey)
	}
	if got := s.log.CountCode("departure"); got != 1 {
		t.Errorf("Expected 1 departure entry, got %d", got)
	}
}

func TestFullFlightArrivesWithoutOvershoot(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	pilot := crew.NewMember("c1", "Okafor", "pilot")
	sh.Crew = []*crew.Member{pilot}
	sh.Assign(ship.RoomEngineRoom, pilot.ID)
	// Enough shielding to fully absorb the drive's radiation output, so the
	// pilot survives the hundreds of ticks the crossing takes.
	sh.Equipment = append(sh.Equipment,
		&ship.Equipment{ID: "e1", DefKey: "shield", Powered: true},
		&ship.Equipment{ID: "e2", DefKey: "shield", Powered: true},
		&ship.Equipment{ID: "e3", DefKey: "shield", Powered: true},
	)
	s.AddShip(sh)

	if err := s.Depart(sh.ID, "port_b"); err != nil {
		t.Fatalf("Depart failed: %v", err)
	}
	startFuel := sh.FuelKg

	arrived := false
	for i := 0; i < 1000; i++ {
		s.AdvanceTick(true)
		if sh.FuelKg < 0 {
			t.Fatalf("Fuel went negative at tick %d: %f", i, sh.FuelKg)
		}
		if fl := sh.Flight; fl != nil {
			if fl.DistanceCoveredKm < 0 || fl.DistanceCoveredKm > fl.TotalDistanceKm {
				t.Fatalf("Distance out of bounds at tick %d: %f of %f",
					i, fl.DistanceCoveredKm, fl.TotalDistanceKm)
			}
		} else {
			arrived = true
			break
		}
	}
	if !arrived {
		t.Fatal("Expected flight to complete within 1000 ticks")
	}

	if sh.Status != ship.StatusOrbiting {
		t.Errorf("Expected orbiting on arrival, got %s", sh.Status)
	}
	if sh.LocationKey != "port_b" {
		t.Errorf("Expected location port_b, got %s", sh.LocationKey)
	}
	if sh.EngineState != ship.EngineOff {
		t.Errorf("Expected engine shut down on arrival, got %s", sh.EngineState)
	}
	if sh.FuelKg >= startFuel {
		t.Errorf("Expected the burns to spend fuel, got %f of %f left", sh.FuelKg, startFuel)
	}
	if got := s.log.CountCode("arrival"); got != 1 {
		t.Errorf("Expected 1 arrival entry, got %d", got)
	}
	if got := s.log.CountCode("crew_death"); got != 0 {
		t.Errorf("Expected the shielded pilot to survive the trip, got %d deaths", got)
	}
	if pilot.Health <= 0 {
		t.Errorf("Expected the pilot alive on arrival, got %f HP", pilot.Health)
	}
	if ms := pilot.MasteryFor(crew.SkillPiloting); ms.Pool.XP <= 0 {
		t.Error("Expected piloting experience from the trip")
	}
}

func TestAssistResolutionPersistsAcrossTicks(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.EngineState = ship.EngineOnline
	sh.Status = ship.StatusInFlight
	sh.Flight = &ship.FlightState{
		OriginKey:       "port_a",
		DestinationKey:  "port_b",
		TotalDistanceKm: 100_000,
		TotalTimeS:      6000,
		BurnFraction:    0.2,
		Phase:           ship.PhaseAccelerating,
		Assists: []*ship.GravityAssistOpportunity{{
			BodyKey:           "rock_b",
			BodyMassKg:        1e21,
			ClosestApproachKm: 1000,
			ThresholdKm:       20_000,
			Progress:          0,
		}},
	}
	sh.LocationKey = "port_b"
	s.AddShip(sh)

	s.AdvanceTick(false)

	opp := sh.Flight.Assists[0]
	if !opp.Checked {
		t.Fatal("Expected the passed opportunity to be resolved")
	}
	if opp.Result == ship.AssistPending {
		t.Error("Expected a definite assist result")
	}
	if rolls := s.log.CountCode("assist_success") + s.log.CountCode("assist_failure"); rolls != 1 {
		t.Fatalf("Expected exactly 1 assist roll, got %d", rolls)
	}

	// The ruling must stick: later ticks never re-roll a checked opportunity.
	result := opp.Result
	for i := 0; i < 5; i++ {
		s.AdvanceTick(false)
	}
	if opp.Result != result {
		t.Errorf("Expected the %s ruling to persist, got %s", result, opp.Result)
	}
	if got := s.log.CountCode("assist_success") + s.log.CountCode("assist_failure"); got != 1 {
		t.Errorf("Expected no re-rolls across ticks, got %d", got)
	}
}

func TestRefuelClampsToTankAndCredits(t *testing.T) {
	f := testFile()
	f.Balance.FuelPricePerKg = 1
	s := newTestSim(t, f) // 1000 starting credits

	sh := testShip("Meridian")
	sh.FuelKg = 9000
	s.AddShip(sh)

	got, err := s.Refuel(sh.ID, 5000)
	if err != nil {
		t.Fatalf("Refuel failed: %v", err)
	}
	if got != 1000 {
		t.Errorf("Expected load clamped to the 1000 kg of tank room, got %f", got)
	}
	if sh.FuelKg != 10_000 {
		t.Errorf("Expected full tank, got %f", sh.FuelKg)
	}
	if s.state.Credits != 0 {
		t.Errorf("Expected 1000 credits spent, got %f remaining", s.state.Credits)
	}
	if c := s.log.CountCode("refuel"); c != 1 {
		t.Errorf("Expected 1 refuel entry, got %d", c)
	}

	// A full tank with no credits leaves nothing to load.
	if _, err := s.Refuel(sh.ID, 100); err == nil {
		t.Error("Expected error when nothing can be loaded")
	}
}

func TestRefuelClearsStranded(t *testing.T) {
	f := testFile()
	f.Balance.FuelPricePerKg = 1
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.FuelKg = 0
	sh.Stranded = true
	s.AddShip(sh)

	if _, err := s.Refuel(sh.ID, 500); err != nil {
		t.Fatalf("Refuel failed: %v", err)
	}
	if sh.Stranded {
		t.Error("Expected refueling to clear the stranded flag")
	}
}

func TestEmergencyRefuelRestartsAdriftFlight(t *testing.T) {
	f := testFile()
	f.Balance.FuelPricePerKg = 1
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.FuelKg = 10
	sh.EngineState = ship.EngineOnline
	sh.Status = ship.StatusInFlight
	sh.Flight = &ship.FlightState{
		OriginKey:       "port_a",
		DestinationKey:  "port_b",
		TotalDistanceKm: 100_000,
		TotalTimeS:      6000,
		BurnFraction:    0.2,
		Phase:           ship.PhaseAccelerating,
	}
	sh.LocationKey = "port_b"
	s.AddShip(sh)

	s.AdvanceTick(false)
	if sh.EngineState != ship.EngineOff || !sh.Stranded {
		t.Fatalf("Expected the ship adrift before the delivery, got %s stranded=%v",
			sh.EngineState, sh.Stranded)
	}

	got, err := s.Refuel(sh.ID, 500)
	if err != nil {
		t.Fatalf("Refuel failed: %v", err)
	}
	if got != 500 {
		t.Errorf("Expected 500 kg delivered, got %f", got)
	}
	if sh.Stranded {
		t.Error("Expected the delivery to clear the stranded flag")
	}
	if sh.EngineState != ship.EngineWarmingUp {
		t.Errorf("Expected the drive re-warming after the delivery, got %s", sh.EngineState)
	}
	if c := s.log.CountCode("engine_rewarm"); c != 1 {
		t.Errorf("Expected 1 engine_rewarm entry, got %d", c)
	}

	// Five ticks of warmup at 20%/tick bring the drive back online and the
	// flight moving again.
	for i := 0; i < 5; i++ {
		s.AdvanceTick(false)
	}
	if sh.EngineState != ship.EngineOnline {
		t.Errorf("Expected the drive back online, got %s", sh.EngineState)
	}
	if sh.Flight == nil || sh.Flight.DistanceCoveredKm <= 0 {
		t.Error("Expected the resumed flight to cover distance")
	}
	if c := s.log.CountCode("stranded"); c != 1 {
		t.Errorf("Expected no re-strand after recovery, got %d entries", c)
	}
	if c := s.log.CountCode("fuel_depleted"); c != 1 {
		t.Errorf("Expected no second exhaustion, got %d entries", c)
	}
}

func TestRefuelRefusesShipUnderWay(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	s.AddShip(sh)

	if err := s.Depart(sh.ID, "port_b"); err != nil {
		t.Fatalf("Depart failed: %v", err)
	}
	if _, err := s.Refuel(sh.ID, 500); err == nil {
		t.Error("Expected error refueling a ship under way")
	}
}

func TestRefuelRequiresDepot(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.LocationKey = "port_b" // mine only, no depot
	sh.FuelKg = 100
	s.AddShip(sh)

	if _, err := s.Refuel(sh.ID, 500); err == nil {
		t.Error("Expected error at a location without a depot")
	}
}

func TestToastQueueIsBounded(t *testing.T) {
	s := newTestSim(t, testFile())
	for i := 0; i < maxPendingToasts+25; i++ {
		s.pushToast(simlog.CategorySystem, "ping", "Meridian")
	}
	toasts := s.DrainToasts()
	if len(toasts) != maxPendingToasts {
		t.Errorf("Expected queue capped at %d, got %d", maxPendingToasts, len(toasts))
	}
	if extra := s.DrainToasts(); len(extra) != 0 {
		t.Errorf("Expected drain to clear the queue, got %d", len(extra))
	}
}
