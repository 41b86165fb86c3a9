package sim

import (
	"fmt"
	"math"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

const standardGravity = 9.80665 // m/s^2, for specific-impulse fuel flow

// flightSystem integrates the burn-coast-burn flight profile: thrust and
// fuel flow during the acceleration and deceleration windows, ballistic
// coasting between them, gravity assist resolution, and periodic course
// corrections against the destination's actual orbital position.
type flightSystem struct {
	sim *Simulation
	// arrivalLogged guards re-logging when a completed flight lingers a tick.
	arrivalLogged map[string]bool
}

func newFlightSystem(s *Simulation) *flightSystem {
	return &flightSystem{sim: s, arrivalLogged: make(map[string]bool)}
}

// Depart plans and starts a flight from the ship's current location to a
// destination location. The trajectory endpoints are frozen at planning
// time: the destination's position is projected to the estimated arrival
// instant and never re-resolved mid-flight except by course corrections.
func (s *Simulation) Depart(shipID, destKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh := s.state.ShipByID(shipID)
	if sh == nil {
		return fmt.Errorf("depart: unknown ship %q", shipID)
	}
	if sh.InFlight() {
		return fmt.Errorf("depart: %s is already in flight", sh.Name)
	}
	if sh.Stranded {
		return fmt.Errorf("depart: %s is stranded", sh.Name)
	}
	origin, ok := s.world.Location(sh.LocationKey)
	if !ok {
		return fmt.Errorf("depart: ship location %q not in world", sh.LocationKey)
	}
	dest, ok := s.world.Location(destKey)
	if !ok {
		return fmt.Errorf("depart: unknown destination %q", destKey)
	}
	if dest.Key == origin.Key {
		return fmt.Errorf("depart: already at %s", dest.Name)
	}
	eng, ok := s.cat.Engine(sh.EngineKey)
	if !ok {
		return fmt.Errorf("depart: ship %s has no engine fitted", sh.Name)
	}
	if sh.FuelKg <= 0 {
		return fmt.Errorf("depart: %s has no fuel", sh.Name)
	}

	now := s.state.GameTimeS
	startPos, _ := s.world.LocationPositionAt(origin.Key, now)

	accel := s.accelKms2(sh, eng) // km/s^2
	if accel <= 0 {
		return fmt.Errorf("depart: %s cannot produce thrust", sh.Name)
	}

	f := s.cat.Balance.BurnFraction
	// First estimate against the destination's current position, then refine
	// once against its position at the estimated arrival time.
	destNow, _ := s.world.LocationPositionAt(dest.Key, now)
	estDist := startPos.Sub(destNow).Len()
	estTime := flightTime(estDist, accel, f)
	endPos, _ := s.world.LocationPositionAt(dest.Key, now+estTime)
	dist := rules.Guard(startPos.Sub(endPos).Len())
	total := flightTime(dist, accel, f)

	class, hasClass := s.cat.ShipClass(sh.ClassKey)
	if hasClass && class.RangeKm > 0 && dist > class.RangeKm {
		return fmt.Errorf("depart: %s exceeds %s range (%.0f > %.0f km)",
			dest.Name, sh.Name, dist, class.RangeKm)
	}

	sh.Flight = &ship.FlightState{
		OriginKey:       origin.Key,
		DestinationKey:  dest.Key,
		TotalDistanceKm: dist,
		TotalTimeS:      total,
		BurnFraction:    f,
		Phase:           ship.PhaseAccelerating,
		StartPos:        startPos,
		EndPos:          endPos,
	}
	sh.Status = ship.StatusInFlight
	sh.LocationKey = dest.Key
	if sh.EngineState == ship.EngineOff {
		sh.EngineState = ship.EngineWarmingUp
		sh.WarmupPct = 0
	}

	s.flight.scanAssists(sh)
	delete(s.flight.arrivalLogged, sh.ID)

	s.appendLog(simlog.CategoryNavigation, "departure",
		fmt.Sprintf("%s departed %s for %s (%.0f km, est %.1f h)",
			sh.Name, origin.Name, dest.Name, dist, total/3600), sh.Name,
		map[string]interface{}{"origin": origin.Key, "destination": dest.Key, "distance_km": dist})
	s.pushToast(simlog.CategoryNavigation, sh.Name+" departed for "+dest.Name, sh.Name)
	return nil
}

// accelKms2 computes the ship's current acceleration in km/s^2 from engine
// thrust and wet mass.
func (s *Simulation) accelKms2(sh *ship.Ship, eng catalog.EngineDef) float64 {
	mass := s.shipMassKg(sh, eng)
	if mass <= 0 {
		return 0
	}
	return eng.ThrustN / mass / 1000
}

func (s *Simulation) shipMassKg(sh *ship.Ship, eng catalog.EngineDef) float64 {
	mass := eng.MassKg + sh.FuelKg
	if class, ok := s.cat.ShipClass(sh.ClassKey); ok {
		mass += class.HullMassKg + sh.ProvisionsKg
	}
	return mass
}

// flightTime inverts the burn-coast-burn distance profile for a symmetric
// plan where fraction f of the trip time is spent under thrust (split
// between the two burns): D = a*(fT/2)*(T - fT/2).
func flightTime(distKm, accelKms2, burnFraction float64) float64 {
	if distKm <= 0 || accelKms2 <= 0 {
		return 0
	}
	f := burnFraction
	if f <= 0 || f > 1 {
		f = 0.2
	}
	return math.Sqrt(distKm / (accelKms2 * (f / 2) * (1 - f/2)))
}

// advance moves one in-flight ship forward by dt seconds. Thrust, fuel
// burn, and distance only accumulate while the engine is online; a cold or
// exhausted drive leaves the ship drifting with no progress.
func (fs *flightSystem) advance(sh *ship.Ship, dt float64) bool {
	fl := sh.Flight
	if fl == nil {
		return false
	}
	if sh.EngineState != ship.EngineOnline {
		return false
	}

	eng, ok := fs.sim.cat.Engine(sh.EngineKey)
	if !ok {
		return false
	}

	fl.TicksFlown++

	accelEnd := fl.BurnFraction * fl.TotalTimeS / 2
	decelStart := fl.TotalTimeS - accelEnd
	t0, t1 := fl.ElapsedS, fl.ElapsedS+dt

	// Seconds of this tick that fall inside a burn window.
	burnS := overlap(t0, t1, 0, accelEnd) + overlap(t0, t1, decelStart, fl.TotalTimeS)
	if burnS > 0 {
		mdot := eng.ThrustN / (eng.SpecificImpulseS * standardGravity) // kg/s
		need := mdot * burnS
		if need >= sh.FuelKg {
			fs.exhaustFuel(sh)
			return true
		}
		sh.FuelKg = rules.Guard(sh.FuelKg - need)
	}

	a := fs.sim.accelKms2(sh, eng)
	vPeak := a * accelEnd
	switch {
	case t1 <= accelEnd:
		fl.Phase = ship.PhaseAccelerating
		fl.VelocityKms = math.Min(fl.VelocityKms+a*dt, vPeak)
	case t0 >= decelStart:
		fl.Phase = ship.PhaseDecelerating
		fl.VelocityKms = math.Max(fl.VelocityKms-a*dt, 0)
	default:
		fl.Phase = ship.PhaseCoasting
		fl.VelocityKms = vPeak
	}

	fl.ElapsedS = t1
	step := rules.Guard(fl.VelocityKms * dt)
	fl.DistanceCoveredKm += step
	if fl.DistanceCoveredKm > fl.TotalDistanceKm {
		fl.DistanceCoveredKm = fl.TotalDistanceKm
	}
	sh.Metrics.DistanceTravelledKm += step

	fs.resolveAssists(sh)
	fs.courseCorrect(sh)

	if fl.DistanceCoveredKm >= fl.TotalDistanceKm || fl.ElapsedS >= fl.TotalTimeS {
		fs.arrive(sh)
	}
	return true
}

// overlap returns the length of the intersection of [a0,a1] and [b0,b1].
func overlap(a0, a1, b0, b1 float64) float64 {
	lo := math.Max(a0, b0)
	hi := math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// exhaustFuel empties the tanks and shuts the drive down. The ship keeps
// drifting; stranded detection picks it up on the same tick.
func (fs *flightSystem) exhaustFuel(sh *ship.Ship) {
	sh.FuelKg = 0
	sh.EngineState = ship.EngineOff
	sh.WarmupPct = 0
	if sh.Flight != nil {
		sh.Flight.VelocityKms = 0
	}
	fs.sim.appendLog(simlog.CategorySystem, "fuel_depleted",
		sh.Name+" has exhausted its fuel reserves", sh.Name, nil)
	fs.sim.pushToast(simlog.CategorySystem, sh.Name+" is out of fuel", sh.Name)
	fs.sim.requestPause(fs.sim.AutoPause.OnFuelDepleted, sh.Name+" out of fuel")
}

// courseCorrect periodically re-projects the arrival point against the
// destination's live orbit and stretches the plan when drift exceeds the
// threshold. Corrections only ever extend the trip.
func (fs *flightSystem) courseCorrect(sh *ship.Ship) {
	fl := sh.Flight
	if fl == nil || fl.TicksFlown == 0 {
		return
	}
	every := fs.sim.cat.Balance.CourseCheckTicks
	if every <= 0 || fl.TicksFlown%int64(every) != 0 {
		return
	}

	remainingT := fl.TotalTimeS - fl.ElapsedS
	if remainingT <= 0 {
		return
	}
	arrival := fs.sim.state.GameTimeS + remainingT
	actual, ok := fs.sim.world.LocationPositionAt(fl.DestinationKey, arrival)
	if !ok {
		return
	}
	drift := actual.Sub(fl.EndPos).Len()
	remainingD := fl.TotalDistanceKm - fl.DistanceCoveredKm
	if remainingD <= 0 || drift/remainingD <= fs.sim.cat.Balance.CourseDriftThreshold {
		return
	}

	// Re-target: extend the remaining leg to cover the drift and scale the
	// remaining time proportionally.
	fl.EndPos = actual
	newRemaining := remainingD + drift
	fl.TotalTimeS = fl.ElapsedS + remainingT*(newRemaining/remainingD)
	fl.TotalDistanceKm = fl.DistanceCoveredKm + newRemaining

	fs.sim.appendLog(simlog.CategoryNavigation, "course_correction",
		fmt.Sprintf("%s corrected course, %.0f km added", sh.Name, drift), sh.Name,
		map[string]interface{}{"drift_km": drift})
}

// arrive completes the flight: the ship parks in orbit at the destination
// and the pilot banks experience proportional to the trip.
func (fs *flightSystem) arrive(sh *ship.Ship) {
	fl := sh.Flight
	if fs.arrivalLogged[sh.ID] {
		return
	}
	fs.arrivalLogged[sh.ID] = true

	destName := fl.DestinationKey
	if loc, ok := fs.sim.world.Location(fl.DestinationKey); ok {
		destName = loc.Name
	}

	sh.Status = ship.StatusOrbiting
	sh.LocationKey = fl.DestinationKey
	sh.EngineState = ship.EngineOff
	sh.WarmupPct = 0
	dist := fl.TotalDistanceKm
	sh.Flight = nil

	if pilot := sh.BestPilot(); pilot != nil {
		fs.sim.mastery.award(sh, pilot, crew.SkillPiloting, sh.EngineKey, dist/10000)
	}

	fs.sim.appendLog(simlog.CategoryNavigation, "arrival",
		fmt.Sprintf("%s arrived at %s", sh.Name, destName), sh.Name,
		map[string]interface{}{"destination": fl.DestinationKey, "distance_km": dist})
	fs.sim.pushToast(simlog.CategoryNavigation, sh.Name+" arrived at "+destName, sh.Name)
}
