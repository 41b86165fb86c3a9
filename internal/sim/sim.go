// Package sim contains the per-tick simulation engine.
// This is the heartbeat of the fleet: one call to AdvanceTick advances every
// ship by one fixed time quantum, integrating flight mechanics, hazards,
// life support, crew economy, and the stochastic hooks into a single
// consistent state transition.
//
// ARCHITECTURAL RULE: everything mutable lives on the caller-owned Simulation
// value — resolver pointers, pending result buffers, toast queues, and the
// per-ship edge-trigger flags all travel with it, so multiple independent
// simulations can run side by side (tests rely on this).
package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/simlog"
	"github.com/orbitalworks/longhaul/internal/world"
)

const maxPendingToasts = 50

// AutoPauseConfig selects which simulation outcomes halt the ticker.
type AutoPauseConfig struct {
	OnFuelDepleted bool `json:"on_fuel_depleted"`
	OnStranded     bool `json:"on_stranded"`
	OnCrewDeath    bool `json:"on_crew_death"`
}

// State is the top-level mutable aggregate for one simulation run.
type State struct {
	Fleet     []*ship.Ship `json:"fleet"`
	Credits   float64      `json:"credits"`
	GameTimeS float64      `json:"game_time_s"`
	TickCount int64        `json:"tick_count"`
}

// ShipByID returns a fleet member by id.
func (st *State) ShipByID(id string) *ship.Ship {
	for _, s := range st.Fleet {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// EncounterResult is the buffered outcome of one resolved encounter.
type EncounterResult struct {
	ShipID       string             `json:"ship_id"`
	ShipName     string             `json:"ship_name"`
	Summary      string             `json:"summary"`
	CreditsDelta float64            `json:"credits_delta"`
	CrewDamage   float64            `json:"crew_damage"`
	FuelDeltaKg  float64            `json:"fuel_delta_kg"`
	Loot         map[string]float64 `json:"loot,omitempty"` // ore key -> kg
}

// MiningYield is what a mining resolver produced for one ship this tick.
type MiningYield struct {
	OreKey       string  `json:"ore_key"`
	AmountKg     float64 `json:"amount_kg"`
	CreditsValue float64 `json:"credits_value"`
}

// EncounterResolver is implemented by the combat module and registered at
// startup; the driver calls it when an encounter roll succeeds. The
// indirection exists to break the combat <-> tick dependency cycle.
type EncounterResolver interface {
	Resolve(s *ship.Ship, st *State, rng *rand.Rand, catchUp bool) *EncounterResult
}

// MiningResolver is implemented by the mining module and registered at
// startup; the driver calls it for ships parked at minable locations.
type MiningResolver interface {
	Mine(s *ship.Ship, loc *world.Location, rng *rand.Rand, catchUp bool) *MiningYield
}

// Simulation owns one complete simulation run: the state aggregate, the
// world, the log/toast sinks, the RNG, and every subsystem's edge-trigger
// bookkeeping. One tick is one synchronous call; the mutex only guards
// against concurrent external reads (HTTP snapshots) against the ticker.
type Simulation struct {
	mu sync.Mutex

	cat    *catalog.Catalog
	world  *world.World
	log    *simlog.Log
	logger *logger.Logger
	rng    *rand.Rand

	state     *State
	AutoPause AutoPauseConfig
	paused    bool
	pauseWhy  string

	encounter EncounterResolver
	mining    MiningResolver

	pendingEncounters []EncounterResult
	toasts            []simlog.Toast

	// catchUp is set for the duration of one AdvanceTick call; it suppresses
	// toast emission but never logging.
	catchUp bool

	flight  *flightSystem
	hazards *hazardSystem
	life    *lifeSupportSystem
	zerog   *zeroGSystem
	economy *economySystem
	mastery *masterySystem
	scans   *scanSystem
}

// New wires up a simulation over a catalog and world. The RNG must be
// provided by the caller so tests can seed it; there is no hidden global.
func New(cat *catalog.Catalog, w *world.World, log *simlog.Log, lg *logger.Logger, rng *rand.Rand) *Simulation {
	s := &Simulation{
		cat:    cat,
		world:  w,
		log:    log,
		logger: lg,
		rng:    rng,
		state: &State{
			Credits: cat.Balance.StartingCredits,
		},
	}
	s.flight = newFlightSystem(s)
	s.hazards = newHazardSystem(s)
	s.life = newLifeSupportSystem(s)
	s.zerog = newZeroGSystem(s)
	s.economy = newEconomySystem(s)
	s.mastery = newMasterySystem(s)
	s.scans = newScanSystem(s)
	return s
}

// State exposes the aggregate for bootstrap and resolvers. Callers outside
// the tick must hold no reference across ticks.
func (s *Simulation) State() *State {
	return s.state
}

// World returns the read-only world collaborator.
func (s *Simulation) World() *world.World {
	return s.world
}

// Catalog returns the immutable content catalog.
func (s *Simulation) Catalog() *catalog.Catalog {
	return s.cat
}

// RegisterEncounterResolver installs the combat hook. Registered once at
// startup, before the first tick.
func (s *Simulation) RegisterEncounterResolver(r EncounterResolver) {
	s.encounter = r
}

// RegisterMiningResolver installs the mining hook.
func (s *Simulation) RegisterMiningResolver(r MiningResolver) {
	s.mining = r
}

// AddShip appends a ship to the fleet.
func (s *Simulation) AddShip(sh *ship.Ship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Fleet = append(s.state.Fleet, sh)
}

// Paused reports whether an auto-pause tripped.
func (s *Simulation) Paused() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused, s.pauseWhy
}

// Pause halts the ticker manually.
func (s *Simulation) Pause(why string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.pauseWhy = why
}

// Resume clears an auto-pause.
func (s *Simulation) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.pauseWhy = ""
}

// AdvanceTick advances the whole simulation by one fixed time quantum and
// reports whether anything observable changed. With catchUp set, toast
// emission is suppressed (logging is not), which is how fast-forward keeps
// large time skips from burying the player in notifications.
//
// Ships are processed strictly in fleet order: the salary pass reads
// per-ship totals computed here, and the shared buffers (pending encounter
// results, toasts, edge-trigger flags) are appended to across the loop.
func (s *Simulation) AdvanceTick(catchUp bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catchUp = catchUp
	dt := s.cat.Balance.TickSeconds

	prevDay := s.gameDay()
	s.state.GameTimeS += dt
	s.state.TickCount++
	s.world.Advance(s.state.GameTimeS)

	changed := false
	for _, sh := range s.state.Fleet {
		if s.advanceShip(sh, dt) {
			changed = true
		}
	}

	if s.economy.runPayroll() {
		changed = true
	}

	s.scans.detectStranded()
	if s.gameDay() != prevDay {
		s.scans.scanNarrativeArcs()
	}

	return changed
}

// advanceShip runs the fixed per-ship subsystem order for one tick.
func (s *Simulation) advanceShip(sh *ship.Ship, dt float64) bool {
	changed := false

	// Engine warmup is a precondition of everything thrust-related.
	if sh.EngineState == ship.EngineWarmingUp {
		if def, ok := s.cat.Engine(sh.EngineKey); ok {
			sh.WarmupPct = rules.ClampPct(sh.WarmupPct + def.WarmupPerTick)
			if sh.WarmupPct >= 100 {
				sh.EngineState = ship.EngineOnline
				s.appendLog(simlog.CategorySystem, "engine_online",
					fmt.Sprintf("%s main drive is online", sh.Name), sh.Name, nil)
			}
			changed = true
		}
	}

	if sh.InFlight() {
		sh.Metrics.FlightTicks++
		if s.flight.advance(sh, dt) {
			changed = true
		}
	} else {
		sh.Metrics.IdleTicks++
	}

	if s.hazards.apply(sh) {
		changed = true
	}
	if s.life.apply(sh) {
		changed = true
	}
	if s.zerog.apply(sh, dt) {
		changed = true
	}

	if s.runMiningHook(sh) {
		changed = true
	}
	if s.runEncounterHook(sh) {
		changed = true
	}
	if s.distributeRepairs(sh) {
		changed = true
	}
	if s.checkCrewDeaths(sh) {
		changed = true
	}

	return changed
}

// gameDay returns the current in-game day number.
func (s *Simulation) gameDay() int64 {
	return int64(s.state.GameTimeS / 86400)
}

// appendLog writes a structured entry to the append-only log.
func (s *Simulation) appendLog(cat simlog.Category, code, msg, shipName string, meta map[string]interface{}) {
	s.log.Append(simlog.Entry{
		GameTimeS: s.state.GameTimeS,
		Category:  cat,
		Code:      code,
		Message:   msg,
		ShipName:  shipName,
		Metadata:  meta,
	})
	s.logger.Event(code, shipName, msg)
}

// pushToast queues a notification unless the tick is a catch-up replay.
// The queue is bounded; oldest toasts are dropped first.
func (s *Simulation) pushToast(cat simlog.Category, msg, shipName string) {
	if s.catchUp {
		return
	}
	s.toasts = append(s.toasts, simlog.Toast{Category: cat, Message: msg, ShipName: shipName})
	if len(s.toasts) > maxPendingToasts {
		s.toasts = s.toasts[len(s.toasts)-maxPendingToasts:]
	}
}

// requestPause trips the auto-pause latch when the config allows it.
func (s *Simulation) requestPause(enabled bool, why string) {
	if !enabled || s.paused {
		return
	}
	s.paused = true
	s.pauseWhy = why
	s.logger.Warn("auto-pause: " + why)
}

// DrainToasts consumes and clears the pending toast queue.
func (s *Simulation) DrainToasts() []simlog.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toasts
	s.toasts = nil
	return out
}

// DrainEncounterResults consumes and clears the buffered encounter results.
func (s *Simulation) DrainEncounterResults() []EncounterResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pendingEncounters
	s.pendingEncounters = nil
	return out
}

// runEncounterHook rolls for and resolves an encounter on an in-flight ship.
func (s *Simulation) runEncounterHook(sh *ship.Ship) bool {
	if s.encounter == nil || !sh.InFlight() || len(sh.Crew) == 0 {
		return false
	}
	if s.rng.Float64() >= s.cat.Balance.EncounterChance {
		return false
	}
	res := s.encounter.Resolve(sh, s.state, s.rng, s.catchUp)
	if res == nil {
		return false
	}

	s.pendingEncounters = append(s.pendingEncounters, *res)
	s.state.Credits += res.CreditsDelta
	if s.state.Credits < 0 {
		s.state.Credits = 0
	}
	sh.FuelKg = rules.Guard(sh.FuelKg + res.FuelDeltaKg)
	if sh.FuelKg > sh.FuelCapacityKg {
		sh.FuelKg = sh.FuelCapacityKg
	}
	if res.CrewDamage > 0 {
		for _, m := range sh.Crew {
			m.Health = rules.ClampPct(m.Health - res.CrewDamage)
		}
	}
	s.appendLog(simlog.CategoryCombat, "encounter", res.Summary, sh.Name, map[string]interface{}{
		"credits_delta": res.CreditsDelta,
		"fuel_delta_kg": res.FuelDeltaKg,
	})
	s.pushToast(simlog.CategoryCombat, res.Summary, sh.Name)
	return true
}

// runMiningHook invokes the mining resolver for parked ships at minable
// locations and feeds the yield into credits and mining mastery.
func (s *Simulation) runMiningHook(sh *ship.Ship) bool {
	if s.mining == nil || sh.InFlight() {
		return false
	}
	loc, ok := s.world.Location(sh.LocationKey)
	if !ok || !loc.Mine {
		return false
	}
	y := s.mining.Mine(sh, loc, s.rng, s.catchUp)
	if y == nil || y.AmountKg <= 0 {
		return false
	}

	s.state.Credits += rules.Guard(y.CreditsValue)
	for _, m := range sh.AssignedTo(ship.RoomMining) {
		s.mastery.award(sh, m, crew.SkillMining, y.OreKey, y.AmountKg*0.1)
	}
	s.appendLog(simlog.CategoryFinancial, "mining_yield",
		fmt.Sprintf("%s extracted %.1f kg of %s", sh.Name, y.AmountKg, y.OreKey), sh.Name,
		map[string]interface{}{"ore": y.OreKey, "amount_kg": y.AmountKg, "credits": y.CreditsValue})
	return true
}

// distributeRepairs lets crew in the repairs room work down equipment
// degradation, most-degraded first, and feeds repairs mastery.
func (s *Simulation) distributeRepairs(sh *ship.Ship) bool {
	mechanics := sh.AssignedTo(ship.RoomRepairs)
	if len(mechanics) == 0 {
		return false
	}

	changed := false
	for _, m := range mechanics {
		points := s.cat.Balance.RepairPerTick * (0.5 + m.Skill(crew.SkillRepairs)/200)

		// Most degraded degradable equipment first.
		var target *ship.Equipment
		for _, eq := range sh.Equipment {
			def, ok := s.cat.Equipment(eq.DefKey)
			if !ok || !def.Degradable || eq.Degradation <= 0 {
				continue
			}
			if target == nil || eq.Degradation > target.Degradation {
				target = eq
			}
		}
		if target == nil {
			continue
		}

		target.Degradation = rules.ClampPct(target.Degradation - points)
		s.mastery.award(sh, m, crew.SkillRepairs, target.DefKey, points)
		changed = true
	}
	return changed
}

// checkCrewDeaths runs once per tick per ship, after all damage sources have
// applied. The player avatar carries a protected health floor and cannot die
// through this path.
func (s *Simulation) checkCrewDeaths(sh *ship.Ship) bool {
	changed := false
	var dead []string
	for _, m := range sh.Crew {
		m.Health = rules.ClampPct(m.Health)
		if m.Health > 0 {
			continue
		}
		if m.IsAvatar {
			m.Health = 5
			continue
		}
		dead = append(dead, m.ID)
	}
	for _, id := range dead {
		m := sh.CrewByID(id)
		sh.RemoveCrew(id)
		s.appendLog(simlog.CategoryCrew, "crew_death",
			fmt.Sprintf("%s has died aboard %s", m.Name, sh.Name), sh.Name,
			map[string]interface{}{"crew_id": m.ID})
		s.pushToast(simlog.CategoryCrew, m.Name+" has died", sh.Name)
		s.requestPause(s.AutoPause.OnCrewDeath, "crew death aboard "+sh.Name)
		changed = true
	}
	return changed
}
