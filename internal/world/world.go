// Package world models the static map the fleet flies through: orbital
// bodies and the dockable locations riding on them. The simulation engine
// consumes this package read-only apart from the per-tick position advance.
package world

import (
	"fmt"
	"math"
)

// Vec2 is a position on the system plane, in kilometers.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Len returns the magnitude of v in km.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Lerp interpolates between a and b by t in [0,1].
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// BodyConfig declares an orbital body in the map file.
type BodyConfig struct {
	Key          string  `yaml:"key" json:"key"`
	Name         string  `yaml:"name" json:"name"`
	MassKg       float64 `yaml:"mass_kg" json:"mass_kg"`
	ParentKey    string  `yaml:"parent_key" json:"parent_key"` // empty = system barycenter
	OrbitRadius  float64 `yaml:"orbit_radius_km" json:"orbit_radius_km"`
	OrbitPeriodS float64 `yaml:"orbit_period_s" json:"orbit_period_s"`
	PhaseRad     float64 `yaml:"phase_rad" json:"phase_rad"`
}

// LocationConfig declares a dockable location and its service flags.
type LocationConfig struct {
	Key     string `yaml:"key" json:"key"`
	Name    string `yaml:"name" json:"name"`
	BodyKey string `yaml:"body_key" json:"body_key"`
	Mine    bool   `yaml:"mine" json:"mine"`
	Refuel  bool   `yaml:"refuel" json:"refuel"`
	Trade   bool   `yaml:"trade" json:"trade"`
}

// Config is the map section of the universe file.
type Config struct {
	Bodies    []BodyConfig    `yaml:"bodies"`
	Locations []LocationConfig `yaml:"locations"`
}

// Body is a resolved orbital body.
type Body struct {
	Key          string
	Name         string
	MassKg       float64
	Parent       *Body // nil = orbits the barycenter
	OrbitRadius  float64
	OrbitPeriodS float64
	PhaseRad     float64
}

// Location is a resolved dockable location.
type Location struct {
	Key    string
	Name   string
	Body   *Body
	Mine   bool
	Refuel bool
	Trade  bool
}

// World holds the resolved map plus the body positions at the current game time.
type World struct {
	bodies    map[string]*Body
	locations map[string]*Location
	positions map[string]Vec2
}

// New resolves a map config into a World. Parent references must resolve and
// must not form a cycle shorter than the body list.
func New(cfg Config) (*World, error) {
	w := &World{
		bodies:    make(map[string]*Body, len(cfg.Bodies)),
		locations: make(map[string]*Location, len(cfg.Locations)),
		positions: make(map[string]Vec2, len(cfg.Bodies)),
	}

	for _, bc := range cfg.Bodies {
		if bc.Key == "" {
			return nil, fmt.Errorf("body with empty key")
		}
		w.bodies[bc.Key] = &Body{
			Key:          bc.Key,
			Name:         bc.Name,
			MassKg:       bc.MassKg,
			OrbitRadius:  bc.OrbitRadius,
			OrbitPeriodS: bc.OrbitPeriodS,
			PhaseRad:     bc.PhaseRad,
		}
	}
	for _, bc := range cfg.Bodies {
		if bc.ParentKey == "" {
			continue
		}
		parent, ok := w.bodies[bc.ParentKey]
		if !ok {
			return nil, fmt.Errorf("body %q references unknown parent %q", bc.Key, bc.ParentKey)
		}
		w.bodies[bc.Key].Parent = parent
	}

	for _, lc := range cfg.Locations {
		body, ok := w.bodies[lc.BodyKey]
		if !ok {
			return nil, fmt.Errorf("location %q references unknown body %q", lc.Key, lc.BodyKey)
		}
		w.locations[lc.Key] = &Location{
			Key:    lc.Key,
			Name:   lc.Name,
			Body:   body,
			Mine:   lc.Mine,
			Refuel: lc.Refuel,
			Trade:  lc.Trade,
		}
	}

	w.Advance(0)
	return w, nil
}

// Advance recomputes every body position for the given game time (seconds).
func (w *World) Advance(gameTimeS float64) {
	for key, b := range w.bodies {
		w.positions[key] = w.positionAt(b, gameTimeS)
	}
}

// positionAt propagates a body's circular orbit at time t, recursing through
// its parent chain.
func (w *World) positionAt(b *Body, t float64) Vec2 {
	var origin Vec2
	if b.Parent != nil {
		origin = w.positionAt(b.Parent, t)
	}
	if b.OrbitRadius == 0 || b.OrbitPeriodS == 0 {
		return origin
	}
	theta := b.PhaseRad + 2*math.Pi*t/b.OrbitPeriodS
	return Vec2{
		X: origin.X + b.OrbitRadius*math.Cos(theta),
		Y: origin.Y + b.OrbitRadius*math.Sin(theta),
	}
}

// PositionAt returns a body's position at an arbitrary game time without
// touching the cached current positions. Used for arrival projections.
func (w *World) PositionAt(bodyKey string, t float64) (Vec2, bool) {
	b, ok := w.bodies[bodyKey]
	if !ok {
		return Vec2{}, false
	}
	return w.positionAt(b, t), true
}

// Position returns a body's position at the last advanced game time.
func (w *World) Position(bodyKey string) (Vec2, bool) {
	p, ok := w.positions[bodyKey]
	return p, ok
}

// LocationPositionAt returns a location's position at game time t.
func (w *World) LocationPositionAt(locKey string, t float64) (Vec2, bool) {
	loc, ok := w.locations[locKey]
	if !ok {
		return Vec2{}, false
	}
	return w.positionAt(loc.Body, t), true
}

// Location returns a location by key.
func (w *World) Location(key string) (*Location, bool) {
	loc, ok := w.locations[key]
	return loc, ok
}

// Body returns a body by key.
func (w *World) Body(key string) (*Body, bool) {
	b, ok := w.bodies[key]
	return b, ok
}

// Locations returns all locations.
func (w *World) Locations() []*Location {
	out := make([]*Location, 0, len(w.locations))
	for _, loc := range w.locations {
		out = append(out, loc)
	}
	return out
}

// MassiveBodies returns all bodies at or above the given mass, used by the
// gravity-assist trajectory scan.
func (w *World) MassiveBodies(minMassKg float64) []*Body {
	var out []*Body
	for _, b := range w.bodies {
		if b.MassKg >= minMassKg {
			out = append(out, b)
		}
	}
	return out
}

// DistanceAt returns the distance between two locations' bodies at time t.
func (w *World) DistanceAt(fromLoc, toLoc string, t float64) (float64, error) {
	a, ok := w.LocationPositionAt(fromLoc, t)
	if !ok {
		return 0, fmt.Errorf("unknown location %q", fromLoc)
	}
	b, ok := w.LocationPositionAt(toLoc, t)
	if !ok {
		return 0, fmt.Errorf("unknown location %q", toLoc)
	}
	return b.Sub(a).Len(), nil
}
