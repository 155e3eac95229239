package watcher

import (
	"sync"
	"time"
)

// Status is a point-in-time view of the watcher, safe to read from any
// goroutine.
type Status struct {
	Running        bool      `json:"running"`
	State          string    `json:"state"`
	LastPass       time.Time `json:"last_pass"` // zero until the first pass completes
	LastPassFailed bool      `json:"last_pass_failed"`
	Passes         int64     `json:"passes"`
	NewMatches     int64     `json:"new_matches"`
}

// HasLastPass reports whether any pass has completed.
func (s Status) HasLastPass() bool { return !s.LastPass.IsZero() }

// statusTracker holds the counters the loop updates after each pass.
// A mutex keeps the fields of a snapshot consistent with each other.
type statusTracker struct {
	mu             sync.Mutex
	lastPass       time.Time
	lastPassFailed bool
	passes         int64
	newMatches     int64
}

func (t *statusTracker) recordPass(finished time.Time, matches int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPass = finished
	t.lastPassFailed = failed
	t.passes++
	t.newMatches += int64(matches)
}

func (t *statusTracker) snapshot(state LoopState) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Running:        state == Running,
		State:          state.String(),
		LastPass:       t.lastPass,
		LastPassFailed: t.lastPassFailed,
		Passes:         t.passes,
		NewMatches:     t.newMatches,
	}
}
