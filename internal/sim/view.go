package sim

import (
	"github.com/orbitalworks/longhaul/internal/domain/ship"
)

// ShipView is the wire-friendly projection of one ship for clients.
type ShipView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ClassKey    string  `json:"class_key"`
	Status      string  `json:"status"`
	LocationKey string  `json:"location_key"`
	EngineState string  `json:"engine_state"`
	WarmupPct   float64 `json:"warmup_pct"`
	FuelKg      float64 `json:"fuel_kg"`
	OxygenPct   float64 `json:"oxygen_pct"`
	CrewCount   int     `json:"crew_count"`
	Stranded    bool    `json:"stranded"`

	FlightProgress float64 `json:"flight_progress"` // 0-1, zero when parked
	DestinationKey string  `json:"destination_key,omitempty"`
}

// FleetView is the top-level snapshot broadcast to clients each tick.
type FleetView struct {
	GameTimeS float64    `json:"game_time_s"`
	TickCount int64      `json:"tick_count"`
	Credits   float64    `json:"credits"`
	Paused    bool       `json:"paused"`
	PauseWhy  string     `json:"pause_why,omitempty"`
	Ships     []ShipView `json:"ships"`
}

// Snapshot builds a consistent view of the whole fleet under the lock.
func (s *Simulation) Snapshot() FleetView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := FleetView{
		GameTimeS: s.state.GameTimeS,
		TickCount: s.state.TickCount,
		Credits:   s.state.Credits,
		Paused:    s.paused,
		PauseWhy:  s.pauseWhy,
		Ships:     make([]ShipView, 0, len(s.state.Fleet)),
	}
	for _, sh := range s.state.Fleet {
		view.Ships = append(view.Ships, shipView(sh))
	}
	return view
}

// ShipSnapshot returns the full ship aggregate for detail endpoints, or nil.
// The returned pointer aliases live state; callers must marshal immediately.
func (s *Simulation) ShipSnapshot(id string) *ship.Ship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ShipByID(id)
}

func shipView(sh *ship.Ship) ShipView {
	v := ShipView{
		ID:          sh.ID,
		Name:        sh.Name,
		ClassKey:    sh.ClassKey,
		Status:      string(sh.Status),
		LocationKey: sh.LocationKey,
		EngineState: string(sh.EngineState),
		WarmupPct:   sh.WarmupPct,
		FuelKg:      sh.FuelKg,
		OxygenPct:   sh.OxygenPct,
		CrewCount:   len(sh.Crew),
		Stranded:    sh.Stranded,
	}
	if fl := sh.Flight; fl != nil {
		v.FlightProgress = fl.Progress()
		v.DestinationKey = fl.DestinationKey
	}
	return v
}
