// Log feed endpoint: JSON export of the simulation's append-only history.
// UI panels (combat feed, ledger, nav log) are thin filters over this.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// LogFeedHandler serves filtered slices of the simulation log.
type LogFeedHandler struct {
	log    *simlog.Log
	logger *logger.Logger
}

// NewLogFeedHandler creates a log feed handler.
func NewLogFeedHandler(l *simlog.Log, lg *logger.Logger) *LogFeedHandler {
	return &LogFeedHandler{log: l, logger: lg}
}

// LogResponse is the API response for log queries.
type LogResponse struct {
	TotalEntries int            `json:"total_entries"`
	FilteredBy   string         `json:"filtered_by,omitempty"`
	GeneratedAt  string         `json:"generated_at"`
	Entries      []simlog.Entry `json:"entries"`
}

// HandleFeed returns the filtered simulation log.
// GET /api/log?category=combat&ship=Meridian&code=arrival&limit=100
func (lh *LogFeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		lh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category := r.URL.Query().Get("category")
	shipName := r.URL.Query().Get("ship")
	code := r.URL.Query().Get("code")

	var entries []simlog.Entry
	filterDesc := ""
	switch {
	case category != "":
		entries = lh.log.ByCategory(simlog.Category(category))
		filterDesc = "category=" + category
	case shipName != "":
		entries = lh.log.ByShip(shipName)
		filterDesc = "ship=" + shipName
	default:
		entries = lh.log.Entries()
	}

	if code != "" {
		kept := entries[:0]
		for _, e := range entries {
			if e.Code == code {
				kept = append(kept, e)
			}
		}
		entries = kept
		if filterDesc != "" {
			filterDesc += ","
		}
		filterDesc += "code=" + code
	}

	total := len(entries)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}
	if entries == nil {
		entries = []simlog.Entry{}
	}

	resp := LogResponse{
		TotalEntries: total,
		FilteredBy:   filterDesc,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Entries:      entries,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		lh.logger.Error("failed to encode log feed response:", err)
	}
}

func (lh *LogFeedHandler) jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
