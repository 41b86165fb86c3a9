package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/simlog"
	"github.com/orbitalworks/longhaul/internal/world"
)

// testFile is the baseline content set the sim tests run against.
// Individual tests override balance knobs before building the simulation.
func testFile() catalog.File {
	return catalog.File{
		Balance: catalog.Balance{
			TickSeconds:     60,
			StartingCredits: 1000,
		},
		Engines: []catalog.EngineDef{
			{Key: "test_drive", ThrustN: 100_000, SpecificImpulseS: 20_000, WarmupPerTick: 20, RadiationOutput: 50, WasteHeatOutput: 0, MassKg: 5000},
		},
		Equipment: []catalog.EquipmentDef{
			{Key: "shield", Kind: catalog.KindShielding, Degradable: true, ShieldingValue: 20},
			{Key: "containment", Kind: catalog.KindContainment, Degradable: true},
			{Key: "scrubber", Kind: catalog.KindLifeSupport, Degradable: true, OxygenGenPerTick: 0.5},
			{Key: "generator", Kind: catalog.KindGenerator, PowerOutputKw: 50},
			{Key: "medbay", Kind: catalog.KindMedbay, Degradable: true, HealthRegenPerTick: 0.2, PatientSlots: 2},
		},
		ShipClasses: []catalog.ShipClassDef{
			{Key: "tug", CrewCapacity: 6, FuelCapacityKg: 10_000, HullMassKg: 50_000},
		},
		Roles: []catalog.RoleDef{
			{Key: "captain", SalaryPerTick: 40},
			{Key: "pilot", SalaryPerTick: 30},
		},
		World: world.Config{
			Bodies: []world.BodyConfig{
				{Key: "star", Name: "Star", MassKg: 1e20},
				{Key: "rock_a", Name: "Rock A", MassKg: 1e21, ParentKey: "star", OrbitRadius: 100_000, OrbitPeriodS: 1e12},
				{Key: "rock_b", Name: "Rock B", MassKg: 1e21, ParentKey: "star", OrbitRadius: 200_000, OrbitPeriodS: 1e12},
			},
			Locations: []world.LocationConfig{
				{Key: "port_a", Name: "Port A", BodyKey: "rock_a", Refuel: true, Trade: true},
				{Key: "port_b", Name: "Port B", BodyKey: "rock_b", Mine: true},
			},
		},
	}
}

func newTestSim(t *testing.T, f catalog.File) *Simulation {
	t.Helper()
	cat, err := catalog.FromFile(f)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	w, err := world.New(f.World)
	if err != nil {
		t.Fatalf("world.New failed: %v", err)
	}
	log := simlog.NewLog(nil)
	return New(cat, w, log, logger.NewLogger(), rand.New(rand.NewSource(1)))
}

func testShip(name string) *ship.Ship {
	sh := ship.New(name+"-id", name, "tug", "test_drive")
	sh.LocationKey = "port_a"
	sh.FuelKg = 10_000
	sh.FuelCapacityKg = 10_000
	sh.ProvisionsKg = 1000
	sh.ProvisionsCap = 1000
	return sh
}

func TestEngineWarmupReachesOnlineInFiveTicks(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.EngineState = ship.EngineWarmingUp
	s.AddShip(sh)

	for i := 1; i <= 4; i++ {
		s.AdvanceTick(false)
		if sh.EngineState != ship.EngineWarmingUp {
			t.Fatalf("Expected engine still warming at tick %d, got %s", i, sh.EngineState)
		}
	}
	s.AdvanceTick(false)
	if sh.EngineState != ship.EngineOnline {
		t.Errorf("Expected engine online after 5 ticks at 20%%/tick, got %s", sh.EngineState)
	}
	if got := s.log.CountCode("engine_online"); got != 1 {
		t.Errorf("Expected exactly 1 engine_online entry, got %d", got)
	}
}

func TestFuelExhaustionShutsDownEngine(t *testing.T) {
	f := testFile()
	// mdot = 100000/(100*9.80665) ~ 102 kg/s, far beyond the 10 kg tank.
	f.Engines[0].SpecificImpulseS = 100
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.FuelKg = 10
	sh.EngineState = ship.EngineOnline
	sh.Status = ship.StatusInFlight
	sh.Flight = &ship.FlightState{
		OriginKey:       "port_a",
		DestinationKey:  "port_b",
		TotalDistanceKm: 100_000,
		TotalTimeS:      600,
		BurnFraction:    0.2,
		Phase:           ship.PhaseAccelerating,
	}
	sh.LocationKey = "port_b"
	s.AddShip(sh)

	s.AdvanceTick(false)

	if sh.FuelKg != 0 {
		t.Errorf("Expected fuel pinned at 0, got %f", sh.FuelKg)
	}
	if sh.EngineState != ship.EngineOff {
		t.Errorf("Expected engine off after exhaustion, got %s", sh.EngineState)
	}
	if got := s.log.CountCode("fuel_depleted"); got != 1 {
		t.Errorf("Expected exactly 1 fuel_depleted entry, got %d", got)
	}
	if !sh.Stranded {
		t.Error("Expected drifting ship to be flagged stranded")
	}
	if got := s.log.CountCode("stranded"); got != 1 {
		t.Errorf("Expected exactly 1 stranded entry, got %d", got)
	}

	// Further ticks must not re-log either condition.
	s.AdvanceTick(false)
	if got := s.log.CountCode("fuel_depleted"); got != 1 {
		t.Errorf("Expected fuel_depleted to stay at 1, got %d", got)
	}
	if got := s.log.CountCode("stranded"); got != 1 {
		t.Errorf("Expected stranded to stay at 1, got %d", got)
	}
}

func TestRadiationLeakDamagesCrew(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.EngineState = ship.EngineOnline
	sh.Equipment = append(sh.Equipment, &ship.Equipment{ID: "e1", DefKey: "shield", Powered: true})
	a := crew.NewMember("c1", "Ada", "pilot")
	b := crew.NewMember("c2", "Ben", "pilot")
	sh.Crew = []*crew.Member{a, b}
	s.AddShip(sh)

	// Radiation 50 minus shielding 20 leaves 30, i.e. 0.3 HP per crew per tick.
	for i := 0; i < 10; i++ {
		s.AdvanceTick(false)
	}

	if math.Abs(a.Health-97) > 1e-9 || math.Abs(b.Health-97) > 1e-9 {
		t.Errorf("Expected both crew at 97 HP after 10 ticks, got %f and %f", a.Health, b.Health)
	}
	if got := s.log.CountCode("radiation_leak"); got != 1 {
		t.Errorf("Expected sustained leak to log exactly once, got %d", got)
	}
}

func TestSalaryShortfallIsAllOrNothing(t *testing.T) {
	f := testFile()
	f.Balance.StartingCredits = 50 // payroll is 40 + 30
	s := newTestSim(t, f)

	sh1 := testShip("Meridian")
	cap := crew.NewMember("c1", "Reyes", "captain")
	sh1.Crew = []*crew.Member{cap}
	sh2 := testShip("Vagrant")
	pil := crew.NewMember("c2", "Okafor", "pilot")
	sh2.Crew = []*crew.Member{pil}
	s.AddShip(sh1)
	s.AddShip(sh2)

	s.AdvanceTick(false)

	if s.state.Credits != 0 {
		t.Errorf("Expected credits drained to 0 on shortfall, got %f", s.state.Credits)
	}
	if cap.UnpaidTicks != 1 || pil.UnpaidTicks != 1 {
		t.Errorf("Expected both crew unpaid fleet-wide, got %d and %d", cap.UnpaidTicks, pil.UnpaidTicks)
	}
	if got := s.log.CountCode("salary_shortfall"); got != 1 {
		t.Errorf("Expected 1 salary_shortfall entry, got %d", got)
	}

	// Sustained shortfall accrues unpaid ticks without re-logging.
	s.AdvanceTick(false)
	if cap.UnpaidTicks != 2 {
		t.Errorf("Expected 2 unpaid ticks, got %d", cap.UnpaidTicks)
	}
	if got := s.log.CountCode("salary_shortfall"); got != 1 {
		t.Errorf("Expected salary_shortfall to stay at 1, got %d", got)
	}
}

func TestPayrollDeductsWhenAffordable(t *testing.T) {
	s := newTestSim(t, testFile()) // 1000 starting credits
	sh := testShip("Meridian")
	cap := crew.NewMember("c1", "Reyes", "captain")
	sh.Crew = []*crew.Member{cap}
	s.AddShip(sh)

	s.AdvanceTick(false)

	if s.state.Credits != 960 {
		t.Errorf("Expected 960 credits after one 40-credit payroll, got %f", s.state.Credits)
	}
	if cap.UnpaidTicks != 0 {
		t.Errorf("Expected no unpaid ticks, got %d", cap.UnpaidTicks)
	}
	if sh.Metrics.CostsPaid != 40 {
		t.Errorf("Expected 40 credits of costs recorded, got %f", sh.Metrics.CostsPaid)
	}
}

func TestContainmentTierAlertsOnce(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.EngineState = ship.EngineOnline
	sh.Equipment = append(sh.Equipment, &ship.Equipment{ID: "e1", DefKey: "containment", Powered: true, Degradation: 65})
	s.AddShip(sh)

	s.AdvanceTick(false)
	if got := s.log.CountCode("containment_warning"); got != 2 {
		t.Errorf("Expected alerts for the 30%% and 50%% tiers, got %d", got)
	}

	s.AdvanceTick(false)
	if got := s.log.CountCode("containment_warning"); got != 2 {
		t.Errorf("Expected no re-alert while wear holds, got %d", got)
	}
}

func TestContainmentIdlesWhileEngineOff(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	eq := &ship.Equipment{ID: "e1", DefKey: "containment", Powered: true, Degradation: 40}
	sh.Equipment = append(sh.Equipment, eq)
	s.AddShip(sh)

	for i := 0; i < 10; i++ {
		s.AdvanceTick(false)
	}

	if eq.Degradation != 40 {
		t.Errorf("Expected containment wear frozen with the drive cold, got %f", eq.Degradation)
	}
	if got := s.log.CountCode("containment_warning"); got != 0 {
		t.Errorf("Expected no containment alerts with the drive cold, got %d", got)
	}
	if got := s.log.CountCode("containment_spike"); got != 0 {
		t.Errorf("Expected no spikes with the drive cold, got %d", got)
	}
}

func TestOxygenTierAlertsTrackDescent(t *testing.T) {
	f := testFile()
	f.Balance.OxygenDepletionPerTick = 1.0
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.OxygenPct = 52
	m := crew.NewMember("c1", "Ada", "pilot")
	sh.Crew = []*crew.Member{m}
	s.AddShip(sh)

	for i := 0; i < 60; i++ {
		s.AdvanceTick(false)
	}

	if got := s.log.CountCode("oxygen_low"); got != 3 {
		t.Errorf("Expected one alert per tier (50/25/10), got %d", got)
	}
	if sh.OxygenPct != 0 {
		t.Errorf("Expected oxygen floor of 0, got %f", sh.OxygenPct)
	}
	if m.Health >= 100 {
		t.Error("Expected hypoxia damage to accumulate")
	}
}

func TestOxygenLogsEveryTierCrossedInOneTick(t *testing.T) {
	f := testFile()
	f.Balance.OxygenDepletionPerTick = 40
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.OxygenPct = 55
	sh.Crew = []*crew.Member{crew.NewMember("c1", "Ada", "pilot")}
	s.AddShip(sh)

	// 55% to 15% in a single tick crosses both the 50% and 25% thresholds.
	s.AdvanceTick(false)
	if got := s.log.CountCode("oxygen_low"); got != 2 {
		t.Errorf("Expected one alert per crossed tier, got %d", got)
	}

	// The final tier follows on the next tick.
	s.AdvanceTick(false)
	if got := s.log.CountCode("oxygen_low"); got != 3 {
		t.Errorf("Expected the 10%% tier alert, got %d total", got)
	}
}

func TestCatchUpSuppressesToastsButNotLogs(t *testing.T) {
	f := testFile()
	f.Engines[0].SpecificImpulseS = 100
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	sh.FuelKg = 10
	sh.EngineState = ship.EngineOnline
	sh.Status = ship.StatusInFlight
	sh.Flight = &ship.FlightState{
		OriginKey:       "port_a",
		DestinationKey:  "port_b",
		TotalDistanceKm: 100_000,
		TotalTimeS:      600,
		BurnFraction:    0.2,
		Phase:           ship.PhaseAccelerating,
	}
	sh.LocationKey = "port_b"
	s.AddShip(sh)

	s.AdvanceTick(true)

	if got := s.log.CountCode("fuel_depleted"); got != 1 {
		t.Errorf("Expected catch-up to still log, got %d entries", got)
	}
	if toasts := s.DrainToasts(); len(toasts) != 0 {
		t.Errorf("Expected catch-up to suppress toasts, got %d", len(toasts))
	}
}

func TestMasteryAwardLevelsAndCheckpoints(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	m := crew.NewMember("c1", "Ada", "pilot")
	sh.Crew = []*crew.Member{m}
	s.AddShip(sh)

	s.mastery.award(sh, m, crew.SkillPiloting, "test_drive", 2600)

	state := m.MasteryFor(crew.SkillPiloting)
	im := state.ItemMasteryFor("test_drive")
	if im.Level != 6 {
		t.Errorf("Expected item level 6 at 2600 XP, got %d", im.Level)
	}
	if state.Pool.XP != 2600 {
		t.Errorf("Expected pool XP 2600, got %f", state.Pool.XP)
	}
	if got := s.log.CountCode("pool_checkpoint"); got != 1 {
		t.Errorf("Expected the 25%% checkpoint to fire once, got %d", got)
	}
	if got := s.log.CountCode("mastery_level"); got != 1 {
		t.Errorf("Expected one level-up entry, got %d", got)
	}

	// Zero work must be a strict no-op.
	s.mastery.award(sh, m, crew.SkillPiloting, "test_drive", 0)
	if im.XP != 2600 {
		t.Errorf("Expected zero award to change nothing, got %f", im.XP)
	}
}

func TestCrewDeathRemovesAndAvatarSurvives(t *testing.T) {
	s := newTestSim(t, testFile())
	s.AutoPause.OnCrewDeath = true

	sh := testShip("Meridian")
	avatar := crew.NewMember("c1", "Reyes", "captain")
	avatar.IsAvatar = true
	avatar.Health = 0
	redshirt := crew.NewMember("c2", "Jones", "pilot")
	redshirt.Health = 0
	sh.Crew = []*crew.Member{avatar, redshirt}
	s.AddShip(sh)

	s.AdvanceTick(false)

	if len(sh.Crew) != 1 || sh.Crew[0].ID != "c1" {
		t.Fatalf("Expected only the avatar to remain, got %d crew", len(sh.Crew))
	}
	if avatar.Health != 5 {
		t.Errorf("Expected avatar health floor of 5, got %f", avatar.Health)
	}
	if got := s.log.CountCode("crew_death"); got != 1 {
		t.Errorf("Expected 1 crew_death entry, got %d", got)
	}
	if paused, _ := s.Paused(); !paused {
		t.Error("Expected auto-pause on crew death")
	}
}

func TestRepairCrewWorkDownDegradation(t *testing.T) {
	f := testFile()
	f.Balance.RepairPerTick = 0.5
	s := newTestSim(t, f)

	sh := testShip("Meridian")
	eq := &ship.Equipment{ID: "e1", DefKey: "shield", Powered: false, Degradation: 10}
	sh.Equipment = append(sh.Equipment, eq)
	mech := crew.NewMember("c1", "Silva", "pilot")
	mech.Skills[crew.SkillRepairs] = 50
	sh.Crew = []*crew.Member{mech}
	sh.Assign(ship.RoomRepairs, mech.ID)
	s.AddShip(sh)

	s.AdvanceTick(false)

	// 0.5 * (0.5 + 50/200) = 0.375 points of wear repaired.
	if eq.Degradation != 9.625 {
		t.Errorf("Expected degradation 9.625, got %f", eq.Degradation)
	}
	if ms := mech.MasteryFor(crew.SkillRepairs); ms.Pool.XP <= 0 {
		t.Error("Expected repair work to feed the mastery pool")
	}
}

func TestZeroGExposureTiersAndDockRecovery(t *testing.T) {
	s := newTestSim(t, testFile())
	sh := testShip("Meridian")
	sh.Status = ship.StatusOrbiting
	m := crew.NewMember("c1", "Ada", "pilot")
	m.ZeroGExposureS = 30*86400 - 30 // one tick away from the first tier
	sh.Crew = []*crew.Member{m}
	s.AddShip(sh)

	s.AdvanceTick(false)
	if m.ZeroGTier != 1 {
		t.Errorf("Expected tier 1 after crossing 30 days, got %d", m.ZeroGTier)
	}
	if m.Morale != 70 {
		t.Errorf("Expected 5-point morale hit, got %f", m.Morale)
	}
	if got := s.log.CountCode("zerog_deterioration"); got != 1 {
		t.Errorf("Expected 1 deterioration entry, got %d", got)
	}

	// Docked recovery runs at 4x the accumulation rate.
	sh.Status = ship.StatusDocked
	before := m.ZeroGExposureS
	s.AdvanceTick(false)
	if m.ZeroGExposureS != before-4*60 {
		t.Errorf("Expected 240s of recovery, got %f", before-m.ZeroGExposureS)
	}
	if got := s.log.CountCode("zerog_deterioration"); got != 1 {
		t.Errorf("Expected no new entry on recovery, got %d", got)
	}
}
