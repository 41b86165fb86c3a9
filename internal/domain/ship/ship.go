// Package ship defines the core domain entities for fleet vessels.
// This package is PURE and must NOT import any infrastructure packages.
package ship

import (
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/world"
)

// EngineState is the drive's lifecycle state. Transitions are one-directional
// within a flight: warming_up -> online, and online -> off on fuel exhaustion.
type EngineState string

const (
	EngineOff       EngineState = "off"
	EngineWarmingUp EngineState = "warming_up"
	EngineOnline    EngineState = "online"
)

// Status locates a ship in the world.
type Status string

const (
	StatusDocked   Status = "docked"
	StatusOrbiting Status = "orbiting"
	StatusInFlight Status = "in_flight"
)

// Room identifies a job-slot group crew can be assigned to.
type Room string

const (
	RoomHelm          Room = "helm"
	RoomEngineRoom    Room = "engine_room"
	RoomReactor       Room = "reactor"
	RoomRepairs       Room = "repairs"
	RoomMining        Room = "mining"
	RoomMedbayPatient Room = "medbay_patient"
)

// Equipment is an installed instance of a catalog equipment definition.
// Owned by its ship; created at purchase, never aliased.
type Equipment struct {
	ID          string  `json:"id"`
	DefKey      string  `json:"def_key"`
	Degradation float64 `json:"degradation"` // 0-100
	Powered     bool    `json:"powered"`
}

// FlightPhase is the flight-plan state machine position.
type FlightPhase string

const (
	PhaseAccelerating FlightPhase = "accelerating"
	PhaseCoasting     FlightPhase = "coasting"
	PhaseDecelerating FlightPhase = "decelerating"
	PhaseComplete     FlightPhase = "complete"
)

// AssistResult is the outcome of a gravity-assist piloting check.
type AssistResult string

const (
	AssistPending AssistResult = "pending"
	AssistSuccess AssistResult = "success"
	AssistFailure AssistResult = "failure"
)

// GravityAssistOpportunity records a massive body the committed trajectory
// passes near. Immutable once resolved except for the result fields.
type GravityAssistOpportunity struct {
	BodyKey           string       `json:"body_key"`
	BodyMassKg        float64      `json:"body_mass_kg"`
	ClosestApproachKm float64      `json:"closest_approach_km"`
	ThresholdKm       float64      `json:"threshold_km"`
	Progress          float64      `json:"progress"` // 0-1 along the trip
	Checked           bool         `json:"checked"`
	Result            AssistResult `json:"result"`
	FuelRefundKg      float64      `json:"fuel_refund_kg"`
	FuelPenaltyKg     float64      `json:"fuel_penalty_kg"`
}

// FlightState is the active flight plan. Created at departure, destroyed at
// arrival; owned exclusively by its ship. StartPos/EndPos are frozen at
// launch — the ship commits to a ballistic path even as bodies keep orbiting.
type FlightState struct {
	OriginKey      string `json:"origin_key"`
	DestinationKey string `json:"destination_key"`

	DistanceCoveredKm float64 `json:"distance_covered_km"`
	TotalDistanceKm   float64 `json:"total_distance_km"`
	ElapsedS          float64 `json:"elapsed_s"`
	TotalTimeS        float64 `json:"total_time_s"`
	BurnFraction      float64 `json:"burn_fraction"`

	Phase       FlightPhase `json:"phase"`
	StartPos    world.Vec2  `json:"start_pos"`
	EndPos      world.Vec2  `json:"end_pos"`
	VelocityKms float64     `json:"velocity_kms"`

	Assists []*GravityAssistOpportunity `json:"assists"`

	TicksFlown int64 `json:"ticks_flown"`
}

// Progress returns flight completion in [0,1].
func (f *FlightState) Progress() float64 {
	if f.TotalDistanceKm <= 0 {
		return 0
	}
	p := f.DistanceCoveredKm / f.TotalDistanceKm
	if p > 1 {
		return 1
	}
	return p
}

// Metrics accumulates per-ship lifetime counters.
type Metrics struct {
	FlightTicks         int64   `json:"flight_ticks"`
	IdleTicks           int64   `json:"idle_ticks"`
	CostsPaid           float64 `json:"costs_paid"`
	DistanceTravelledKm float64 `json:"distance_travelled_km"`
}

// Ship is one fleet vessel. Owned exclusively by the fleet; its mutable
// sub-objects (crew, equipment, flight state) are never shared across ships.
type Ship struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClassKey string `json:"class_key"`

	Status Status `json:"status"`
	// LocationKey is the docked/orbiting location, or the flight target
	// while in flight.
	LocationKey string `json:"location_key"`

	EngineKey   string      `json:"engine_key"`
	EngineState EngineState `json:"engine_state"`
	WarmupPct   float64     `json:"warmup_pct"` // 0-100

	FuelKg         float64 `json:"fuel_kg"`
	FuelCapacityKg float64 `json:"fuel_capacity_kg"`

	OxygenPct     float64 `json:"oxygen_pct"` // 0-100
	ProvisionsKg  float64 `json:"provisions_kg"`
	ProvisionsCap float64 `json:"provisions_cap"`

	Crew      []*crew.Member `json:"crew"`
	Equipment []*Equipment   `json:"equipment"`

	// Assignments maps rooms to crew IDs occupying their job slots.
	Assignments map[Room][]string `json:"assignments"`

	Flight *FlightState `json:"flight,omitempty"`

	Stranded bool    `json:"stranded"`
	Metrics  Metrics `json:"metrics"`
}

// New creates a ship with empty roster and full oxygen.
func New(id, name, classKey, engineKey string) *Ship {
	return &Ship{
		ID:          id,
		Name:        name,
		ClassKey:    classKey,
		Status:      StatusDocked,
		EngineKey:   engineKey,
		EngineState: EngineOff,
		OxygenPct:   100,
		Assignments: make(map[Room][]string),
	}
}

// CrewByID returns the member with the given id.
func (s *Ship) CrewByID(id string) *crew.Member {
	for _, m := range s.Crew {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AssignedTo returns the crew members occupying a room's job slots.
func (s *Ship) AssignedTo(room Room) []*crew.Member {
	ids := s.Assignments[room]
	out := make([]*crew.Member, 0, len(ids))
	for _, id := range ids {
		if m := s.CrewByID(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// IsAssigned reports whether the member occupies a slot in the room.
func (s *Ship) IsAssigned(room Room, crewID string) bool {
	for _, id := range s.Assignments[room] {
		if id == crewID {
			return true
		}
	}
	return false
}

// Assign places a crew member into a room, removing any previous assignment.
func (s *Ship) Assign(room Room, crewID string) {
	s.Unassign(crewID)
	if s.Assignments == nil {
		s.Assignments = make(map[Room][]string)
	}
	s.Assignments[room] = append(s.Assignments[room], crewID)
}

// Unassign removes a crew member from every room.
func (s *Ship) Unassign(crewID string) {
	for room, ids := range s.Assignments {
		kept := ids[:0]
		for _, id := range ids {
			if id != crewID {
				kept = append(kept, id)
			}
		}
		s.Assignments[room] = kept
	}
}

// RemoveCrew drops a member from the roster and all assignments.
func (s *Ship) RemoveCrew(crewID string) {
	s.Unassign(crewID)
	kept := s.Crew[:0]
	for _, m := range s.Crew {
		if m.ID != crewID {
			kept = append(kept, m)
		}
	}
	s.Crew = kept
}

// EquipmentByDef returns installed equipment built from the given
// definition key. Callers resolve kinds through the catalog.
func (s *Ship) EquipmentByDef(defKey string) []*Equipment {
	var out []*Equipment
	for _, eq := range s.Equipment {
		if eq.DefKey == defKey {
			out = append(out, eq)
		}
	}
	return out
}

// BestPilot returns the highest piloting skill aboard, preferring the helm
// assignment when one exists.
func (s *Ship) BestPilot() *crew.Member {
	if helm := s.AssignedTo(RoomHelm); len(helm) > 0 {
		best := helm[0]
		for _, m := range helm[1:] {
			if m.Skill(crew.SkillPiloting) > best.Skill(crew.SkillPiloting) {
				best = m
			}
		}
		return best
	}
	var best *crew.Member
	for _, m := range s.Crew {
		if best == nil || m.Skill(crew.SkillPiloting) > best.Skill(crew.SkillPiloting) {
			best = m
		}
	}
	return best
}

// InFlight reports whether the ship has an active flight plan.
func (s *Ship) InFlight() bool {
	return s.Status == StatusInFlight && s.Flight != nil
}
