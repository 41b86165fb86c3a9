package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// scanSystem runs the cross-cutting sweeps at the end of each tick:
// stranded detection every tick and the daily narrative arc scan.
type scanSystem struct {
	sim *Simulation

	strandedAlert map[string]bool
	arcLogged     map[string]bool // ship id + arc code -> already written
}

func newScanSystem(s *Simulation) *scanSystem {
	return &scanSystem{
		sim:           s,
		strandedAlert: make(map[string]bool),
		arcLogged:     make(map[string]bool),
	}
}

// detectStranded marks in-flight ships that can no longer make progress:
// a dead drive with no fuel, or an engine room nobody is running.
func (sc *scanSystem) detectStranded() {
	for _, sh := range sc.sim.state.Fleet {
		if !sh.InFlight() {
			continue
		}
		noFuel := sh.EngineState == ship.EngineOff && sh.FuelKg <= 0
		unmanned := len(sh.AssignedTo(ship.RoomEngineRoom)) == 0 && len(sh.Crew) > 0
		if !noFuel && !unmanned {
			continue
		}
		if sc.strandedAlert[sh.ID] {
			continue
		}
		sc.strandedAlert[sh.ID] = true
		sh.Stranded = true

		why := "engine room unmanned"
		if noFuel {
			why = "fuel exhausted"
		}
		sc.sim.appendLog(simlog.CategorySystem, "stranded",
			fmt.Sprintf("%s is stranded between %s and %s (%s)",
				sh.Name, sh.Flight.OriginKey, sh.Flight.DestinationKey, why), sh.Name,
			map[string]interface{}{"reason": why})
		sc.sim.pushToast(simlog.CategorySystem, sh.Name+" is stranded: "+why, sh.Name)
		sc.sim.requestPause(sc.sim.AutoPause.OnStranded, sh.Name+" stranded")
	}
}

// scanNarrativeArcs runs once per in-game day, turning long-running fleet
// conditions into one-shot story beats in the log.
func (sc *scanSystem) scanNarrativeArcs() {
	for _, sh := range sc.sim.state.Fleet {
		sc.arcDiscontent(sh)
		sc.arcWanderer(sh)
		sc.arcLowMorale(sh)
	}
}

func (sc *scanSystem) arcOnce(sh *ship.Ship, code, msg string) {
	key := sh.ID + ":" + code
	if sc.arcLogged[key] {
		return
	}
	sc.arcLogged[key] = true
	sc.sim.appendLog(simlog.CategoryCrew, code, msg, sh.Name, nil)
}

// arcDiscontent fires when pay has been missed long enough for grumbling to
// become organized.
func (sc *scanSystem) arcDiscontent(sh *ship.Ship) {
	for _, m := range sh.Crew {
		if m.UnpaidTicks >= 1440 { // a full day unpaid
			sc.arcOnce(sh, "arc_discontent",
				fmt.Sprintf("unrest is spreading aboard %s over missed wages", sh.Name))
			return
		}
	}
}

// arcWanderer marks a ship that has spent far more time underway than at
// rest.
func (sc *scanSystem) arcWanderer(sh *ship.Ship) {
	mtr := sh.Metrics
	if mtr.FlightTicks > 10_000 && mtr.FlightTicks > 4*mtr.IdleTicks {
		sc.arcOnce(sh, "arc_wanderer",
			fmt.Sprintf("%s's crew have come to think of the void as home", sh.Name))
	}
}

// arcLowMorale fires when average morale sinks badly.
func (sc *scanSystem) arcLowMorale(sh *ship.Ship) {
	if len(sh.Crew) == 0 {
		return
	}
	total := 0.0
	for _, m := range sh.Crew {
		total += m.Morale
	}
	if total/float64(len(sh.Crew)) < 25 {
		sc.arcOnce(sh, "arc_low_morale",
			fmt.Sprintf("morale aboard %s has collapsed", sh.Name))
	}
}
