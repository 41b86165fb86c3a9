package sim

import (
	"testing"

	"github.com/orbitalworks/longhaul/internal/platform/logger"
)

func TestFastForwardAdvancesClock(t *testing.T) {
	s := newTestSim(t, testFile())
	tk := NewTicker(s, logger.NewLogger())

	fired := 0
	tk.OnTick = func() { fired++ }

	if ran := tk.FastForward(10); ran != 10 {
		t.Errorf("Expected 10 ticks run, got %d", ran)
	}
	if s.state.TickCount != 10 {
		t.Errorf("Expected tick count 10, got %d", s.state.TickCount)
	}
	if s.state.GameTimeS != 10*s.cat.Balance.TickSeconds {
		t.Errorf("Expected %f s of game time, got %f", 10*s.cat.Balance.TickSeconds, s.state.GameTimeS)
	}
	if fired != 1 {
		t.Errorf("Expected a single OnTick after the burst, got %d", fired)
	}
	if toasts := s.DrainToasts(); len(toasts) != 0 {
		t.Errorf("Expected no toasts from catch-up ticks, got %d", len(toasts))
	}
}

func TestSetSpeedClamps(t *testing.T) {
	s := newTestSim(t, testFile())
	tk := NewTicker(s, logger.NewLogger())

	if got := tk.SetSpeed(0); got != 1 {
		t.Errorf("Expected speed floor of 1, got %d", got)
	}
	if got := tk.SetSpeed(99); got != MaxSpeed {
		t.Errorf("Expected speed capped at %d, got %d", MaxSpeed, got)
	}
	if got := tk.Speed(); got != MaxSpeed {
		t.Errorf("Expected current speed %d, got %d", MaxSpeed, got)
	}
}

func TestFastForwardStopsOnPause(t *testing.T) {
	s := newTestSim(t, testFile())
	tk := NewTicker(s, logger.NewLogger())

	s.Pause("manual")
	if ran := tk.FastForward(5); ran != 0 {
		t.Errorf("Expected no ticks while paused, got %d", ran)
	}
	if s.state.TickCount != 0 {
		t.Errorf("Expected clock untouched, got %d", s.state.TickCount)
	}
}
