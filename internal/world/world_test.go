package world

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		Bodies: []BodyConfig{
			{Key: "star", Name: "Star", MassKg: 2e30},
			{Key: "planet", Name: "Planet", MassKg: 6e24, ParentKey: "star", OrbitRadius: 150_000_000, OrbitPeriodS: 31_536_000},
			{Key: "moon", Name: "Moon", MassKg: 7e22, ParentKey: "planet", OrbitRadius: 384_400, OrbitPeriodS: 2_360_000},
		},
		Locations: []LocationConfig{
			{Key: "port", Name: "Port", BodyKey: "planet", Refuel: true, Trade: true},
			{Key: "claim", Name: "Claim", BodyKey: "moon", Mine: true},
		},
	}
}

func TestNewRejectsUnknownParent(t *testing.T) {
	cfg := Config{
		Bodies: []BodyConfig{{Key: "stray", ParentKey: "missing"}},
	}
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unknown parent, got nil")
	}
}

func TestNewRejectsUnknownLocationBody(t *testing.T) {
	cfg := Config{
		Bodies:    []BodyConfig{{Key: "star"}},
		Locations: []LocationConfig{{Key: "ghost", BodyKey: "missing"}},
	}
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for location on unknown body, got nil")
	}
}

func TestOrbitRadiusHolds(t *testing.T) {
	w, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Circular orbit: distance from parent stays at the orbit radius for any t.
	for _, tm := range []float64{0, 1e5, 1e7, 3e8} {
		p, _ := w.PositionAt("planet", tm)
		s, _ := w.PositionAt("star", tm)
		d := p.Sub(s).Len()
		if math.Abs(d-150_000_000) > 1 {
			t.Errorf("Expected planet to hold its orbit radius at t=%.0f, got %f", tm, d)
		}
	}
}

func TestMoonTracksPlanet(t *testing.T) {
	w, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m, _ := w.PositionAt("moon", 5e6)
	p, _ := w.PositionAt("planet", 5e6)
	d := m.Sub(p).Len()
	if math.Abs(d-384_400) > 1 {
		t.Errorf("Expected moon at orbit radius from planet, got %f", d)
	}
}

func TestAdvanceCachesPositions(t *testing.T) {
	w, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.Advance(1e6)
	cached, ok := w.Position("planet")
	if !ok {
		t.Fatal("Expected cached position for planet")
	}
	direct, _ := w.PositionAt("planet", 1e6)
	if cached != direct {
		t.Errorf("Expected cached position %v to match direct %v", cached, direct)
	}
}

func TestMassiveBodiesFilter(t *testing.T) {
	w, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	heavy := w.MassiveBodies(1e24)
	if len(heavy) != 2 {
		t.Errorf("Expected 2 bodies above 1e24 kg, got %d", len(heavy))
	}
}

func TestDistanceAt(t *testing.T) {
	w, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d, err := w.DistanceAt("port", "claim", 0)
	if err != nil {
		t.Fatalf("DistanceAt failed: %v", err)
	}
	if math.Abs(d-384_400) > 1 {
		t.Errorf("Expected port-claim distance of one lunar orbit radius, got %f", d)
	}
	if _, err := w.DistanceAt("port", "nowhere", 0); err == nil {
		t.Error("Expected error for unknown location")
	}
}

func TestLerp(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 10, Y: 20}
	mid := Lerp(a, b, 0.5)
	if mid.X != 5 || mid.Y != 10 {
		t.Errorf("Expected midpoint {5 10}, got %v", mid)
	}
}
