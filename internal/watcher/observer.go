package watcher

import (
	"time"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

// PassInfo describes a pass as it starts.
type PassInfo struct {
	ID        string    `json:"id"`
	Term      string    `json:"term"`
	NotBefore time.Time `json:"not_before"`
	SearchURL string    `json:"search_url"`
	Started   time.Time `json:"started"`
}

// PassReport describes a finished pass. Err is set when the search itself
// failed; such a pass counts as "no results" and the loop carries on.
type PassReport struct {
	PassInfo
	Finished time.Time      `json:"finished"`
	Err      error          `json:"-"`
	Counts   PassCounts     `json:"counts"`
	Matches  []engine.Match `json:"matches"`
}

// Failed reports whether the search session failed.
func (r PassReport) Failed() bool { return r.Err != nil }

// Observer receives loop events. Calls come from the loop goroutine, one
// at a time; MatchFound is called once per match in discovery order,
// between PassStarted and PassCompleted of its pass.
type Observer interface {
	PassStarted(info PassInfo)
	MatchFound(m engine.Match)
	PassCompleted(r PassReport)
	// PersistenceWarning reports a ledger read or write failure. Future
	// passes may report duplicates until it is fixed.
	PersistenceWarning(err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PassStarted(PassInfo)     {}
func (NopObserver) MatchFound(engine.Match)  {}
func (NopObserver) PassCompleted(PassReport) {}
func (NopObserver) PersistenceWarning(error) {}
