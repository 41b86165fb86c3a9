package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitalworks/longhaul/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents an active WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ClientCommand is an incoming control frame from the frontend.
type ClientCommand struct {
	Type    string          `json:"type"` // "DEPART", "REFUEL", "SPEED", "PAUSE", "RESUME", "FAST_FORWARD"
	ShipID  string          `json:"ship_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServeWs upgrades an HTTP request to a WebSocket session.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed:", err)
		metrics.Get().RecordWSError()
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, h.tuning.ClientSendBuffer)}
	h.register <- client

	go client.writePump()
	go client.readPump()

	// Greet the new session with the current state so it does not have to
	// wait for the next tick.
	raw, err := json.Marshal(envelope{Type: "fleet", Payload: h.sim.Snapshot()})
	if err == nil {
		client.send <- raw
	}
}

// readPump pumps messages from the websocket connection into commands.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read error:", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("failed to parse client command: " + err.Error())
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd ClientCommand) {
	switch cmd.Type {
	case "DEPART":
		var parsed struct {
			Destination string `json:"destination"`
		}
		if err := json.Unmarshal(cmd.Payload, &parsed); err != nil {
			c.hub.logger.Warn("bad depart payload:", err)
			return
		}
		if err := c.hub.sim.Depart(cmd.ShipID, parsed.Destination); err != nil {
			c.hub.logger.Warn("depart rejected:", err)
		}
	case "REFUEL":
		var parsed struct {
			AmountKg float64 `json:"amount_kg"`
		}
		if err := json.Unmarshal(cmd.Payload, &parsed); err != nil {
			c.hub.logger.Warn("bad refuel payload:", err)
			return
		}
		if _, err := c.hub.sim.Refuel(cmd.ShipID, parsed.AmountKg); err != nil {
			c.hub.logger.Warn("refuel rejected:", err)
		}
	case "SPEED":
		var parsed struct {
			Speed int `json:"speed"`
		}
		if err := json.Unmarshal(cmd.Payload, &parsed); err != nil {
			c.hub.logger.Warn("bad speed payload:", err)
			return
		}
		applied := c.hub.ticker.SetSpeed(parsed.Speed)
		c.hub.BroadcastJSON("speed_changed", map[string]int{"speed": applied})
	case "PAUSE":
		c.hub.sim.Pause("paused by client")
	case "RESUME":
		c.hub.sim.Resume()
	case "FAST_FORWARD":
		var parsed struct {
			Ticks int `json:"ticks"`
		}
		if err := json.Unmarshal(cmd.Payload, &parsed); err != nil {
			c.hub.logger.Warn("bad fast-forward payload:", err)
			return
		}
		if max := c.hub.tuning.MaxCatchUpTicksPerRequest; parsed.Ticks > max {
			parsed.Ticks = max
		}
		ran := c.hub.ticker.FastForward(parsed.Ticks)
		c.hub.BroadcastJSON("fast_forward_done", map[string]int{"ticks": ran})
	default:
		c.hub.logger.Warn("unknown client command type: " + cmd.Type)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
