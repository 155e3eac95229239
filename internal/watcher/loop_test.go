package watcher

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/engine/sources"
	"github.com/anatolykoptev/ytwatch/internal/ledger"
)

func TestLoopEndToEnd(t *testing.T) {
	ctx := context.Background()
	gameplay := record("Line Rider Gameplay", "Bob", "abc", testToday)
	cooking := record("Cooking Tutorial", "Amy", "xyz", testToday)

	search := &fakeSearcher{results: [][]engine.CandidateRecord{
		{gameplay, cooking},
		{gameplay},
	}}
	led, path := fileLedger(t)
	obs := &recordingObserver{}
	loop := newTestLoop(search, led, obs, time.Hour)

	// Pass 1: one new match, the other fails relevance.
	rep := loop.RunPass(ctx)
	require.False(t, rep.Failed())
	require.Len(t, rep.Matches, 1)
	assert.Equal(t, "Line Rider Gameplay", rep.Matches[0].Title)
	assert.Equal(t, "Bob", rep.Matches[0].Uploader)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", rep.Matches[0].URL)
	assert.Equal(t, PassCounts{Candidates: 2, New: 1, Irrelevant: 1}, rep.Counts)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Line Rider Gameplay | Bob | https://www.youtube.com/watch?v=abc\n", string(data))

	st := loop.status.snapshot(Idle)
	assert.Equal(t, int64(1), st.Passes)
	assert.Equal(t, int64(1), st.NewMatches)
	assert.Equal(t, testNow, st.LastPass)

	// Pass 2: same record again, nothing new.
	rep = loop.RunPass(ctx)
	assert.Empty(t, rep.Matches)
	assert.Equal(t, 1, rep.Counts.Seen)

	st = loop.status.snapshot(Idle)
	assert.Equal(t, int64(2), st.Passes)
	assert.Equal(t, int64(1), st.NewMatches)

	require.Len(t, obs.matches, 1)
	require.Len(t, obs.started, 2)
	require.Len(t, obs.reports, 2)
	assert.Empty(t, obs.warnings)
}

func TestLoopLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	rec := record("Line Rider Gameplay", "Bob", "abc", testToday)
	led, path := fileLedger(t)

	first := newTestLoop(&fakeSearcher{results: [][]engine.CandidateRecord{{rec}}}, led, nil, time.Hour)
	require.Len(t, first.RunPass(ctx).Matches, 1)

	// A new process with the same file reports nothing.
	obs := &recordingObserver{}
	second := newTestLoop(&fakeSearcher{results: [][]engine.CandidateRecord{{rec}}},
		ledger.New(ledger.NewFileStore(path)), obs, time.Hour)
	assert.Empty(t, second.RunPass(ctx).Matches)
	assert.Empty(t, obs.matches)
}

func TestLoopSearchFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	rec := record("Line Rider Gameplay", "Bob", "abc", testToday)
	search := &fakeSearcher{
		results: [][]engine.CandidateRecord{nil, {rec}},
		errs:    []error{sources.ErrSessionFailed},
	}
	led, _ := fileLedger(t)
	loop := newTestLoop(search, led, nil, time.Hour)

	rep := loop.RunPass(ctx)
	assert.True(t, rep.Failed())
	assert.ErrorIs(t, rep.Err, sources.ErrSessionFailed)
	st := loop.status.snapshot(Idle)
	assert.True(t, st.LastPassFailed)
	assert.Equal(t, int64(1), st.Passes)

	rep = loop.RunPass(ctx)
	assert.False(t, rep.Failed())
	assert.Len(t, rep.Matches, 1)
	assert.False(t, loop.status.snapshot(Idle).LastPassFailed)
}

func TestLoopLedgerLoadFailureUsesMemory(t *testing.T) {
	ctx := context.Background()
	rec := record("Line Rider Gameplay", "Bob", "abc", testToday)
	store := &brokenStore{readErr: errDisk}
	obs := &recordingObserver{}
	loop := newTestLoop(&fakeSearcher{results: [][]engine.CandidateRecord{{rec}}}, ledger.New(store), obs, time.Hour)

	rep := loop.RunPass(ctx)
	assert.Len(t, rep.Matches, 1)
	require.Len(t, obs.warnings, 1)
	assert.ErrorIs(t, obs.warnings[0], ledger.ErrPersistence)

	// Still unreadable: the in-memory snapshot prevents a repeat report.
	rep = loop.RunPass(ctx)
	assert.Empty(t, rep.Matches)
	assert.Len(t, obs.warnings, 2)
}

func TestLoopPassWindow(t *testing.T) {
	led, _ := fileLedger(t)
	obs := &recordingObserver{}
	loop := newTestLoop(&fakeSearcher{}, led, obs, time.Hour)

	rep := loop.RunPass(context.Background())
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), rep.NotBefore)
	assert.Contains(t, rep.SearchURL, "after%3A2026-10-18")
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, PassCounts{}, rep.Counts)
}

func TestLoopRunStopsDuringWait(t *testing.T) {
	led, _ := fileLedger(t)
	search := &fakeSearcher{}
	loop := newTestLoop(search, led, nil, time.Hour)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(context.Background(), stop)
	}()

	require.Eventually(t, func() bool { return search.Calls() == 1 }, time.Second, 5*time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop within the wait")
	}
	assert.Equal(t, 1, search.Calls())
}

func TestLoopRunRepeatsAfterInterval(t *testing.T) {
	led, _ := fileLedger(t)
	search := &fakeSearcher{}
	loop := newTestLoop(search, led, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx, make(chan struct{}))
	}()

	require.Eventually(t, func() bool { return search.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestLoopExitDuringSearchIsNotRecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	search := &fakeSearcher{
		gate:    make(chan struct{}), // never closed
		entered: make(chan struct{}, 1),
	}
	led, _ := fileLedger(t)
	obs := &recordingObserver{}
	loop := newTestLoop(search, led, obs, time.Hour)
	before := engine.GetMetrics()

	done := make(chan PassReport, 1)
	go func() { done <- loop.RunPass(ctx) }()
	<-search.entered
	cancel()

	var rep PassReport
	select {
	case rep = <-done:
	case <-time.After(time.Second):
		t.Fatal("pass did not return after cancel")
	}
	assert.ErrorIs(t, rep.Err, context.Canceled)

	st := loop.status.snapshot(Idle)
	assert.Zero(t, st.Passes)
	assert.False(t, st.HasLastPass())
	assert.False(t, st.LastPassFailed)
	assert.Zero(t, obs.Reports(), "no PassCompleted for an aborted pass")

	after := engine.GetMetrics()
	assert.Equal(t, before["passes"], after["passes"])
	assert.Equal(t, before["pass_failures"], after["pass_failures"])
}
