package audiomode

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultJournalSize is the number of records kept when no size is given.
const DefaultJournalSize = 256

// TransitionRecord describes one processed event.
type TransitionRecord struct {
	Sequence  uint64
	Event     EventKind
	From      State
	To        State
	Mode      AudioMode
	Handled   bool
	Malformed bool
	SessionID uuid.UUID
	Timestamp time.Time
	Effects   []Effect
}

// Changed reports whether the event moved the machine to another state.
func (r TransitionRecord) Changed() bool {
	return r.From != r.To
}

// JournalStats aggregates counters over every event the journal has seen,
// including records that have since been evicted from the ring.
type JournalStats struct {
	TotalEvents uint64
	Transitions uint64
	Unhandled   uint64
	Malformed   uint64
	EnterCounts map[State]uint64
	EventCounts map[EventKind]uint64
	LastUpdate  time.Time
}

// Journal keeps a bounded history of processed events for diagnostics.
//
// Example usage:
//
//	journal := NewJournal(128)
//	machine, _ := NewMachine(focus, route, WithJournal(journal))
//	...
//	for _, r := range journal.Records() {
//	    fmt.Printf("%s: %s -> %s\n", r.Event, r.From, r.To)
//	}
type Journal struct {
	mu       sync.RWMutex
	capacity int
	records  []TransitionRecord
	next     int
	full     bool
	stats    JournalStats
}

// NewJournal creates a journal holding at most capacity records. A
// non-positive capacity keeps counters only.
func NewJournal(capacity int) *Journal {
	if capacity < 0 {
		capacity = 0
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewJournal",
		"capacity": capacity,
	}).Debug("Creating transition journal")

	return &Journal{
		capacity: capacity,
		records:  make([]TransitionRecord, capacity),
		stats:    newJournalStats(),
	}
}

func newJournalStats() JournalStats {
	return JournalStats{
		EnterCounts: make(map[State]uint64),
		EventCounts: make(map[EventKind]uint64),
	}
}

// Add appends a record, evicting the oldest one when full.
func (j *Journal) Add(r TransitionRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.TotalEvents++
	j.stats.EventCounts[r.Event]++
	j.stats.LastUpdate = r.Timestamp
	if r.Changed() {
		j.stats.Transitions++
		j.stats.EnterCounts[r.To]++
	}
	if !r.Handled {
		j.stats.Unhandled++
	}
	if r.Malformed {
		j.stats.Malformed++
	}

	if j.capacity == 0 {
		return
	}
	j.records[j.next] = r
	j.next = (j.next + 1) % j.capacity
	if j.next == 0 {
		j.full = true
	}
}

// Records returns the retained records, oldest first.
func (j *Journal) Records() []TransitionRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.full {
		out := make([]TransitionRecord, j.next)
		copy(out, j.records[:j.next])
		return out
	}
	out := make([]TransitionRecord, 0, j.capacity)
	out = append(out, j.records[j.next:]...)
	return append(out, j.records[:j.next]...)
}

// Stats returns a copy of the aggregated counters.
func (j *Journal) Stats() JournalStats {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := j.stats
	s.EnterCounts = make(map[State]uint64, len(j.stats.EnterCounts))
	for k, v := range j.stats.EnterCounts {
		s.EnterCounts[k] = v
	}
	s.EventCounts = make(map[EventKind]uint64, len(j.stats.EventCounts))
	for k, v := range j.stats.EventCounts {
		s.EventCounts[k] = v
	}
	return s
}

// Reset clears records and counters.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = make([]TransitionRecord, j.capacity)
	j.next = 0
	j.full = false
	j.stats = newJournalStats()
}
