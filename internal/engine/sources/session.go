// Package sources implements the platform search collaborator: one session
// queries YouTube for recent uploads and resolves every hit into a full
// CandidateRecord.
package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

// ErrSessionFailed is returned when the search phase itself fails and the
// pass has no results at all.
var ErrSessionFailed = errors.New("search session failed")

// Searcher runs one search pass.
//
// Search returns resolved records for term uploaded no earlier than
// notBefore, at most maxResults of them. References that fail to resolve
// are left out silently; only a failure of the query itself is an error,
// and it wraps ErrSessionFailed.
type Searcher interface {
	Search(ctx context.Context, term string, notBefore time.Time, maxResults int) ([]engine.CandidateRecord, error)
}

// YouTube is a Searcher backed by youtube.com.
type YouTube struct {
	client  *http.Client
	browser pageGetter // nil: HTML pages go through client
	apiKeys []string
	loc     *time.Location
	limiter *rate.Limiter
	logger  *slog.Logger

	dataAPIBase string
	resultsURL  string
	playerURL   string
	watchURL    string
}

// Option configures a YouTube session.
type Option func(*YouTube)

// WithAPIKeys enables the Data API search path. Keys are tried in order.
func WithAPIKeys(keys ...string) Option {
	return func(y *YouTube) {
		for _, k := range keys {
			if k != "" {
				y.apiKeys = append(y.apiKeys, k)
			}
		}
	}
}

// WithLocation sets the zone upload dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(y *YouTube) {
		if loc != nil {
			y.loc = loc
		}
	}
}

// WithResolveRate caps per-video resolution requests per second.
func WithResolveRate(rps float64) Option {
	return func(y *YouTube) {
		if rps > 0 {
			y.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(y *YouTube) {
		if l != nil {
			y.logger = l
		}
	}
}

// NewYouTube creates a YouTube session. A nil client uses http.DefaultClient.
func NewYouTube(client *http.Client, opts ...Option) *YouTube {
	if client == nil {
		client = http.DefaultClient
	}
	y := &YouTube{
		client:      client,
		loc:         time.Local,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		logger:      slog.Default(),
		dataAPIBase: ytDataAPIBase,
		resultsURL:  ytResultsURL,
		playerURL:   ytInnertubeURL,
		watchURL:    "https://www.youtube.com/watch",
	}
	for _, o := range opts {
		o(y)
	}
	return y
}

// Search implements Searcher. A non-positive maxResults means
// engine.DefaultMaxResults.
func (y *YouTube) Search(ctx context.Context, term string, notBefore time.Time, maxResults int) ([]engine.CandidateRecord, error) {
	if maxResults <= 0 {
		maxResults = engine.DefaultMaxResults
	}
	engine.IncrSearch()
	defer engine.TrackOperation("youtube_search", time.Now(), 30*time.Second)

	refs, err := y.searchRefs(ctx, term, notBefore, maxResults)
	if err != nil {
		engine.IncrSearchError()
		return nil, fmt.Errorf("%w: %w", ErrSessionFailed, err)
	}
	y.logger.Debug("youtube search",
		slog.String("query", searchQuery(term, notBefore)),
		slog.Int("refs", len(refs)),
	)

	records := make([]engine.CandidateRecord, 0, len(refs))
	for _, ref := range refs {
		if err := y.limiter.Wait(ctx); err != nil {
			break
		}
		rec, err := y.resolve(ctx, ref)
		if err != nil {
			engine.IncrResolveError()
			y.logger.Debug("skip unresolvable video", slog.String("id", ref.ID), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
