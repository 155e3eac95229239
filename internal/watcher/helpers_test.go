package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/ledger"
)

var (
	testNow   = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	testToday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
)

func record(title, uploader, id string, uploaded time.Time) engine.CandidateRecord {
	return engine.CandidateRecord{
		Title:      title,
		Uploader:   uploader,
		UploadDate: uploaded,
		VideoID:    id,
		URL:        engine.WatchURL(id),
	}
}

// fakeSearcher returns one scripted result per call; after the script runs
// out it repeats the last entry.
type fakeSearcher struct {
	mu      sync.Mutex
	results [][]engine.CandidateRecord
	errs    []error
	calls   int
	// gate, when set, blocks every call until it is closed or ctx ends.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, _ string, _ time.Time, _ int) ([]engine.CandidateRecord, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

func (f *fakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []PassInfo
	matches  []engine.Match
	reports  []PassReport
	warnings []error
}

func (r *recordingObserver) PassStarted(info PassInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, info)
}

func (r *recordingObserver) MatchFound(m engine.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
}

func (r *recordingObserver) PassCompleted(rep PassReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recordingObserver) PersistenceWarning(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, err)
}

func (r *recordingObserver) Reports() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

// brokenStore fails reads and/or appends.
type brokenStore struct {
	readErr   error
	appendErr error
	appended  []string
}

func (b *brokenStore) ReadAll(context.Context) (ledger.Set, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return ledger.NewSet(b.appended...), nil
}

func (b *brokenStore) AppendLine(_ context.Context, line string) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.appended = append(b.appended, line)
	return nil
}

func (b *brokenStore) Close() error { return nil }

var errDisk = errors.New("disk on fire")

func fileLedger(t *testing.T) (*ledger.Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seen_videos.txt")
	return ledger.New(ledger.NewFileStore(path)), path
}

func newTestLoop(search *fakeSearcher, led *ledger.Ledger, obs Observer, interval time.Duration) *Loop {
	return NewLoop(search, led, obs, LoopConfig{
		Term:       "line rider",
		Interval:   interval,
		MaxResults: 20,
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
	})
}
