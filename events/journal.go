package events

import "sync"

// DefaultJournalSize is the number of events a Journal retains by default.
const DefaultJournalSize = 4096

// Journal is the append-only notification log read by external observers.
// Each recorded event gets the next sequence number starting at 1; only the
// newest events up to the configured capacity are kept.
type Journal struct {
	mu       sync.RWMutex
	capacity int
	ring     []Event // oldest at start once full
	start    int
	next     uint64
}

var _ Sink = (*Journal)(nil)

// NewJournal creates a Journal that keeps at most capacity events. A
// non-positive capacity selects DefaultJournalSize.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultJournalSize
	}
	return &Journal{capacity: capacity, next: 1}
}

// Attach subscribes the journal to every marketplace event published by e.
// EventTxExecuted is bookkeeping for the node and is not journaled.
func (j *Journal) Attach(e *Emitter) {
	e.SubscribeAll(func(ev Event) {
		if ev.Type != EventTxExecuted {
			j.Emit(ev)
		}
	})
}

// Emit appends ev with the next sequence number.
func (j *Journal) Emit(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ev.Seq = j.next
	j.next++
	if len(j.ring) < j.capacity {
		j.ring = append(j.ring, ev)
		return
	}
	j.ring[j.start] = ev
	j.start = (j.start + 1) % j.capacity
}

// Since returns up to limit retained events with a sequence number greater
// than seq, oldest first. A non-positive limit returns all of them.
func (j *Journal) Since(seq uint64, limit int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []Event
	for i := range j.ring {
		ev := j.ring[(j.start+i)%len(j.ring)]
		if ev.Seq <= seq {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Last returns the sequence number of the newest event, or 0 if none has
// been recorded.
func (j *Journal) Last() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.next - 1
}
