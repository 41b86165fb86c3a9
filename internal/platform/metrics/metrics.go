// Package metrics provides observability for the simulation server.
// Counters are cheap enough to record on every tick, even during catch-up runs.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	CatchUpTicks   int64
	LastTickTime   time.Time

	// Sim-log metrics
	LogEntriesWritten int64
	LogWriteLatSum    int64
	LogWriteLatMax    int64
	LogWriteErrors    int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration, catchUp bool) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	if catchUp {
		atomic.AddInt64(&c.CatchUpTicks, 1)
	}

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordLogWrite records a sim-log entry write to the database.
func (c *Collector) RecordLogWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.LogEntriesWritten, 1)
	atomic.AddInt64(&c.LogWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.LogWriteLatMax) {
		atomic.StoreInt64(&c.LogWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.LogWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	entriesWritten := atomic.LoadInt64(&c.LogEntriesWritten)

	var tickAvg, writeAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if entriesWritten > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.LogWriteLatSum)) / float64(entriesWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"catch_up":       atomic.LoadInt64(&c.CatchUpTicks),
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"simlog": map[string]interface{}{
			"written":          entriesWritten,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.LogWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.LogWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP longhaul_tick_count Total tick cycles\n")
		fmt.Fprintf(w, "# TYPE longhaul_tick_count counter\n")
		fmt.Fprintf(w, "longhaul_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP longhaul_catch_up_ticks Ticks run in fast-forward mode\n")
		fmt.Fprintf(w, "# TYPE longhaul_catch_up_ticks counter\n")
		fmt.Fprintf(w, "longhaul_catch_up_ticks %d\n\n", atomic.LoadInt64(&c.CatchUpTicks))

		fmt.Fprintf(w, "# HELP longhaul_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE longhaul_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "longhaul_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP longhaul_log_entries_written Total sim-log entries written\n")
		fmt.Fprintf(w, "# TYPE longhaul_log_entries_written counter\n")
		fmt.Fprintf(w, "longhaul_log_entries_written %d\n\n", atomic.LoadInt64(&c.LogEntriesWritten))

		fmt.Fprintf(w, "# HELP longhaul_log_write_errors Total sim-log write errors\n")
		fmt.Fprintf(w, "# TYPE longhaul_log_write_errors counter\n")
		fmt.Fprintf(w, "longhaul_log_write_errors %d\n\n", atomic.LoadInt64(&c.LogWriteErrors))

		fmt.Fprintf(w, "# HELP longhaul_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE longhaul_ws_connections gauge\n")
		fmt.Fprintf(w, "longhaul_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP longhaul_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE longhaul_ws_messages_total counter\n")
		fmt.Fprintf(w, "longhaul_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "longhaul_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
