package audit

import "sync"

// Trail is the session-scoped, append-only record of decisions. Entries are
// only ever appended; Entries returns a copy so callers cannot edit history.
// The decision and audit endpoints are served concurrently, so access is
// guarded by a mutex.
type Trail struct {
	mu      sync.Mutex
	entries []Entry
}

// Append adds one entry to the end of the trail.
func (t *Trail) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Entries returns the decisions in insertion order.
func (t *Trail) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded decisions.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
