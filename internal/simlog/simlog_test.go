package simlog

import (
	"sync"
	"testing"
)

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	l := NewLog(nil)
	l.Append(Entry{Category: CategorySystem, Code: "test", Message: "hello"})

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("Expected ID to be generated")
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be filled in")
	}
}

func TestFilters(t *testing.T) {
	l := NewLog(nil)
	l.Append(Entry{Category: CategoryCombat, Code: "encounter", ShipName: "Meridian"})
	l.Append(Entry{Category: CategoryFinancial, Code: "refuel", ShipName: "Meridian"})
	l.Append(Entry{Category: CategoryCombat, Code: "encounter", ShipName: "Vagrant"})

	if got := len(l.ByCategory(CategoryCombat)); got != 2 {
		t.Errorf("Expected 2 combat entries, got %d", got)
	}
	if got := len(l.ByShip("Meridian")); got != 2 {
		t.Errorf("Expected 2 Meridian entries, got %d", got)
	}
	if got := l.CountCode("encounter"); got != 2 {
		t.Errorf("Expected 2 encounter codes, got %d", got)
	}
	if got := l.CountCode("missing"); got != 0 {
		t.Errorf("Expected 0 for unknown code, got %d", got)
	}
}

// countingPersister records how many entries reached durable storage.
type countingPersister struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func (p *countingPersister) Append(e Entry) error {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func TestPersisterReceivesEntries(t *testing.T) {
	p := &countingPersister{done: make(chan struct{}, 2)}
	l := NewLog(p)
	l.Append(Entry{Category: CategorySystem, Code: "a"})
	l.Append(Entry{Category: CategorySystem, Code: "b"})

	<-p.done
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count != 2 {
		t.Errorf("Expected 2 persisted entries, got %d", p.count)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := NewLog(nil)
	l.Append(Entry{Category: CategorySystem, Code: "x"})
	entries := l.Entries()
	entries[0].Code = "mutated"
	if l.Entries()[0].Code != "x" {
		t.Error("Expected log to be immune to caller mutation")
	}
}
