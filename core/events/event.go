package events

import (
	"sync"

	"fundvault/core/types"
)

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Log is an append-only emitter that retains every event in emission order so
// observers can reconstruct ledger state by replaying the stream.
type Log struct {
	mu      sync.RWMutex
	entries []*types.Event
}

// NewLog returns an empty event log.
func NewLog() *Log {
	return &Log{}
}

// Emit appends the event payload to the log.
func (l *Log) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, payload)
	l.mu.Unlock()
}

// Len reports the number of recorded events.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Replay invokes fn for every recorded event in emission order. Replay stops
// early if fn returns false.
func (l *Log) Replay(fn func(*types.Event) bool) {
	if l == nil || fn == nil {
		return
	}
	l.mu.RLock()
	snapshot := make([]*types.Event, len(l.entries))
	copy(snapshot, l.entries)
	l.mu.RUnlock()
	for _, evt := range snapshot {
		if !fn(evt) {
			return
		}
	}
}

// Snapshot returns a copy of the recorded event stream.
func (l *Log) Snapshot() []*types.Event {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*types.Event, len(l.entries))
	copy(out, l.entries)
	return out
}
