package sim

import (
	"context"
	"sync"
	"time"

	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/platform/metrics"
)

// TickRate is how often the real-time loop advances the simulation by one
// game tick at 1x speed. Fast-forward bypasses it entirely.
const TickRate = 1 * time.Second

// MaxSpeed is the fastest real-time multiplier SetSpeed accepts.
const MaxSpeed = 8

// Ticker drives a Simulation in real time. It only owns cadence; all game
// semantics live in Simulation.AdvanceTick.
type Ticker struct {
	sim      *Simulation
	logger   *logger.Logger
	stopChan chan struct{}
	rateChan chan time.Duration

	mu    sync.Mutex
	speed int

	// OnTick, when set, runs after every real-time tick that changed state.
	// Used to push fleet snapshots to connected clients.
	OnTick func()
}

// NewTicker creates a real-time driver for the simulation.
func NewTicker(sim *Simulation, log *logger.Logger) *Ticker {
	return &Ticker{
		sim:      sim,
		logger:   log,
		stopChan: make(chan struct{}),
		rateChan: make(chan time.Duration, 1),
		speed:    1,
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("simulation ticker started")

	ticker := time.NewTicker(TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("simulation ticker stopped by context")
			return
		case <-t.stopChan:
			t.logger.Info("simulation ticker stopped manually")
			return
		case d := <-t.rateChan:
			ticker.Reset(d)
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}

// SetSpeed changes the real-time multiplier, clamped to [1, MaxSpeed], and
// returns the value applied. Takes effect on the next loop iteration.
func (t *Ticker) SetSpeed(n int) int {
	if n < 1 {
		n = 1
	}
	if n > MaxSpeed {
		n = MaxSpeed
	}
	t.mu.Lock()
	t.speed = n
	t.mu.Unlock()

	// Replace any rate change the loop has not picked up yet.
	select {
	case <-t.rateChan:
	default:
	}
	t.rateChan <- TickRate / time.Duration(n)
	t.logger.Info("tick speed set to", n, "x")
	return n
}

// Speed returns the current real-time multiplier.
func (t *Ticker) Speed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}

func (t *Ticker) tick() {
	if paused, _ := t.sim.Paused(); paused {
		return
	}
	start := time.Now()
	changed := t.sim.AdvanceTick(false)
	metrics.Get().RecordTick(time.Since(start), false)

	if changed && t.OnTick != nil {
		t.OnTick()
	}
}

// FastForward replays n ticks back to back in catch-up mode, which keeps
// every log entry but suppresses toasts. It stops early when an auto-pause
// trips and returns the number of ticks actually run.
func (t *Ticker) FastForward(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		if paused, _ := t.sim.Paused(); paused {
			break
		}
		start := time.Now()
		t.sim.AdvanceTick(true)
		metrics.Get().RecordTick(time.Since(start), true)
		ran++
	}
	if ran > 0 {
		t.logger.Info("fast-forwarded", ran, "ticks")
		if t.OnTick != nil {
			t.OnTick()
		}
	}
	return ran
}
