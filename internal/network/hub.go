package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/platform/metrics"
	"github.com/orbitalworks/longhaul/internal/platform/tuning"
	"github.com/orbitalworks/longhaul/internal/sim"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	sim    *sim.Simulation
	ticker *sim.Ticker
	logger *logger.Logger
	tuning tuning.Config
}

// NewHub initializes a new WebSocket hub bound to one simulation.
func NewHub(s *sim.Simulation, t *sim.Ticker, log *logger.Logger, cfg tuning.Config) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, cfg.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		sim:        s,
		ticker:     t,
		logger:     log,
		tuning:     cfg,
	}
}

// Run starts the hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("new WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// envelope is the typed frame every outbound message travels in.
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BroadcastJSON serializes a typed frame and sends it to all clients.
func (h *Hub) BroadcastJSON(msgType string, payload interface{}) {
	raw, err := json.Marshal(envelope{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to serialize broadcast frame:", err)
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- raw
}

// BroadcastTick pushes the current fleet snapshot plus any pending toasts
// and encounter results. Wired as the ticker's OnTick callback.
func (h *Hub) BroadcastTick() {
	h.BroadcastJSON("fleet", h.sim.Snapshot())
	if toasts := h.sim.DrainToasts(); len(toasts) > 0 {
		h.BroadcastJSON("toasts", toasts)
	}
	if results := h.sim.DrainEncounterResults(); len(results) > 0 {
		h.BroadcastJSON("encounters", results)
	}
}

// StartLogPoller pushes new simulation log entries to clients. The log is
// append-only, so a high-water mark is all the cursor needed.
func (h *Hub) StartLogPoller(ctx context.Context, log *simlog.Log) {
	go func() {
		poll := time.NewTicker(500 * time.Millisecond)
		defer poll.Stop()

		lastSent := log.Len()
		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				entries := log.Entries()
				if len(entries) > lastSent {
					h.BroadcastJSON("log", entries[lastSent:])
					lastSent = len(entries)
				}
			}
		}
	}()
}
