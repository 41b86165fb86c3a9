// Package simlog provides the append-only structured log of the simulation.
// Every observable state transition the engine produces lands here; UI panels
// and the audit trail are read-only consumers filtering by category.
package simlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category classifies a log entry for consumer-side filtering.
type Category string

const (
	CategoryCombat     Category = "combat"
	CategoryFinancial  Category = "financial"
	CategoryNavigation Category = "navigation"
	CategoryCrew       Category = "crew"
	CategorySystem     Category = "system"
)

// Entry is an immutable record of an observable simulation event.
// Code is the machine-readable discriminator; Message is opaque narrative text.
type Entry struct {
	ID        string                 `json:"id"`
	GameTimeS float64                `json:"game_time_s"`
	Category  Category               `json:"category"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	ShipName  string                 `json:"ship_name,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EntryPersister defines how an entry is durably stored.
type EntryPersister interface {
	Append(entry Entry) error
}

// Log is the in-memory append-only simulation log.
// Durable storage is delegated to an optional EntryPersister.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	persister EntryPersister
}

// NewLog creates a new simulation log with an optional persister.
func NewLog(persister EntryPersister) *Log {
	return &Log{
		entries:   make([]Entry, 0),
		persister: persister,
	}
}

// Append adds a new entry to the log. Entries are immutable once appended.
// A missing ID or timestamp is filled in here so callers can stay terse.
func (l *Log) Append(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	if l.persister != nil {
		// Write through to persistent storage off the tick path.
		go func(e Entry) {
			_ = l.persister.Append(e)
		}(entry)
	}
}

// Entries returns the full history of entries.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByCategory returns all entries of a given category.
func (l *Log) ByCategory(c Category) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.Category == c {
			result = append(result, e)
		}
	}
	return result
}

// ByShip returns all entries attributed to a ship.
func (l *Log) ByShip(shipName string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.ShipName == shipName {
			result = append(result, e)
		}
	}
	return result
}

// CountCode returns how many entries carry the given code.
func (l *Log) CountCode(code string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Toast is an ephemeral notification surfaced to the player once.
// Toasts are buffered by the simulation and drained by the caller; they are
// suppressed (but never the log) during catch-up runs.
type Toast struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	ShipName string   `json:"ship_name,omitempty"`
}
