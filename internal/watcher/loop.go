package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/engine/sources"
	"github.com/anatolykoptev/ytwatch/internal/ledger"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	Term       string
	Interval   time.Duration
	MaxResults int
	Location   *time.Location
	// Now overrides the clock. Default: time.Now.
	Now func() time.Time
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (c *LoopConfig) defaults() {
	if c.Term == "" {
		c.Term = engine.DefaultTerm
	}
	if c.Interval <= 0 {
		c.Interval = engine.DefaultInterval
	}
	if c.MaxResults <= 0 {
		c.MaxResults = engine.DefaultMaxResults
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Loop runs search passes back to back with a fixed wait in between.
// It is driven by a Controller; Run and RunPass must not be called
// concurrently.
type Loop struct {
	search     sources.Searcher
	ledger     *ledger.Ledger
	classifier *Classifier
	observer   Observer
	cfg        LoopConfig
	log        *slog.Logger

	status statusTracker

	// snapshot is the last ledger state that loaded, plus keys added since.
	// It stands in for the ledger when a load fails.
	snapshot ledger.Set
}

// NewLoop creates a Loop. A nil observer discards events.
func NewLoop(search sources.Searcher, led *ledger.Ledger, obs Observer, cfg LoopConfig) *Loop {
	cfg.defaults()
	if obs == nil {
		obs = NopObserver{}
	}
	return &Loop{
		search:     search,
		ledger:     led,
		classifier: NewClassifier(cfg.Term, cfg.Location),
		observer:   obs,
		cfg:        cfg,
		log:        cfg.Logger,
		snapshot:   make(ledger.Set),
	}
}

// Run executes passes until stop is closed or ctx is cancelled. A pass in
// progress always completes; stop only cuts the wait before the next one.
func (l *Loop) Run(ctx context.Context, stop <-chan struct{}) {
	l.log.Info("watch loop started",
		slog.String("term", l.cfg.Term),
		slog.Duration("interval", l.cfg.Interval),
	)
	defer l.log.Info("watch loop stopped")

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		l.RunPass(ctx)

		if !l.wait(ctx, stop) {
			return
		}
	}
}

// wait blocks for the pass interval. It returns false if stop or ctx
// ended the wait early.
func (l *Loop) wait(ctx context.Context, stop <-chan struct{}) bool {
	l.log.Debug("waiting until next check", slog.Duration("interval", l.cfg.Interval))
	timer := time.NewTimer(l.cfg.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// RunPass performs one search-classify-report cycle. If ctx is cancelled
// while searching, the pass is dropped: status, metrics and PassCompleted
// are left untouched and the returned report carries ctx's error.
func (l *Loop) RunPass(ctx context.Context) PassReport {
	started := l.cfg.Now()
	today := started.In(l.cfg.Location)
	y, m, d := today.Date()
	notBefore := time.Date(y, m, d-1, 0, 0, 0, 0, l.cfg.Location)

	info := PassInfo{
		ID:        uuid.NewString(),
		Term:      l.cfg.Term,
		NotBefore: notBefore,
		SearchURL: sources.SearchPageURL(l.cfg.Term, notBefore),
		Started:   started,
	}
	log := l.log.With(slog.String("pass", info.ID))
	l.observer.PassStarted(info)

	report := PassReport{PassInfo: info}
	records, err := l.search.Search(ctx, l.cfg.Term, notBefore, l.cfg.MaxResults)
	if ctx.Err() != nil {
		// Aborted by exit: not a pass, nothing to record or report.
		report.Err = ctx.Err()
		log.Debug("search pass aborted", slog.Any("error", report.Err))
		return report
	}
	engine.IncrPass()
	if err != nil {
		engine.IncrPassFailure()
		report.Err = err
		log.Warn("search pass failed, retrying next interval", slog.Any("error", err))
	} else {
		seen := l.loadSnapshot(ctx, log)
		out := l.classifier.ClassifyPass(ctx, records, seen, l.ledger, today)
		for _, perr := range out.PersistErrors {
			l.persistenceWarning(log, perr)
		}
		for _, match := range out.Matches {
			l.observer.MatchFound(match)
		}
		report.Counts = out.Counts
		report.Matches = out.Matches
		engine.AddMatches(len(out.Matches))
		engine.AddRecordsSkipped(out.Counts.Skipped)
		log.Info("search pass done",
			slog.Int("candidates", out.Counts.Candidates),
			slog.Int("new", out.Counts.New),
			slog.Int("seen", out.Counts.Seen),
			slog.Int("stale", out.Counts.Stale),
			slog.Int("irrelevant", out.Counts.Irrelevant),
			slog.Int("skipped", out.Counts.Skipped),
		)
	}

	report.Finished = l.cfg.Now()
	l.status.recordPass(report.Finished, len(report.Matches), report.Failed())
	l.observer.PassCompleted(report)
	return report
}

// loadSnapshot reads the ledger once for this pass. On failure the last
// good snapshot is reused.
func (l *Loop) loadSnapshot(ctx context.Context, log *slog.Logger) ledger.Set {
	loaded, err := l.ledger.Load(ctx)
	if err != nil {
		l.persistenceWarning(log, err)
		return l.snapshot
	}
	l.snapshot = loaded
	return loaded
}

func (l *Loop) persistenceWarning(log *slog.Logger, err error) {
	engine.IncrPersistenceError()
	if !errors.Is(err, ledger.ErrPersistence) {
		err = errors.Join(ledger.ErrPersistence, err)
	}
	log.Error("ledger unavailable, duplicates may be reported later", slog.Any("error", err))
	l.observer.PersistenceWarning(err)
}
