package watcher

import (
	"context"
	"strings"
	"time"

	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/ledger"
)

// Verdict is the classification of one candidate.
type Verdict int

const (
	VerdictNew        Verdict = iota
	VerdictSkipped            // missing title or identifier
	VerdictIrrelevant         // title does not contain the term
	VerdictStale              // no upload date, or not uploaded today
	VerdictSeen               // already in the ledger
)

func (v Verdict) String() string {
	switch v {
	case VerdictNew:
		return "new"
	case VerdictSkipped:
		return "skipped"
	case VerdictIrrelevant:
		return "irrelevant"
	case VerdictStale:
		return "stale"
	case VerdictSeen:
		return "seen"
	}
	return "unknown"
}

// Appender durably records a key. *ledger.Ledger satisfies it.
type Appender interface {
	Append(ctx context.Context, key string) error
}

// Classifier decides relevance, recency and novelty of candidates.
type Classifier struct {
	term string // normalized
	loc  *time.Location
}

// NewClassifier returns a classifier for term. Dates are compared as
// calendar days in loc (time.Local when nil).
func NewClassifier(term string, loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.Local
	}
	return &Classifier{term: engine.NormalizeText(term), loc: loc}
}

// Classify checks one record against the snapshot. Checks run in order:
// well-formed, relevant, uploaded today, not seen.
func (c *Classifier) Classify(rec engine.CandidateRecord, seen ledger.Set, today time.Time) Verdict {
	if strings.TrimSpace(rec.Title) == "" || (rec.VideoID == "" && rec.URL == "") {
		return VerdictSkipped
	}
	if !strings.Contains(engine.NormalizeText(rec.Title), c.term) {
		return VerdictIrrelevant
	}
	if !rec.HasUploadDate() || !engine.SameDay(rec.UploadDate, today, c.loc) {
		return VerdictStale
	}
	if seen.Has(ledger.RecordKey(rec)) {
		return VerdictSeen
	}
	return VerdictNew
}

// PassCounts tallies verdicts for one pass.
type PassCounts struct {
	Candidates int `json:"candidates"`
	New        int `json:"new"`
	Skipped    int `json:"skipped"`
	Irrelevant int `json:"irrelevant"`
	Stale      int `json:"stale"`
	Seen       int `json:"seen"`
}

func (pc *PassCounts) add(v Verdict) {
	pc.Candidates++
	switch v {
	case VerdictNew:
		pc.New++
	case VerdictSkipped:
		pc.Skipped++
	case VerdictIrrelevant:
		pc.Irrelevant++
	case VerdictStale:
		pc.Stale++
	case VerdictSeen:
		pc.Seen++
	}
}

// PassOutcome is the result of classifying a full pass.
type PassOutcome struct {
	Matches       []engine.Match
	Counts        PassCounts
	PersistErrors []error
}

// ClassifyPass classifies records in order. Each new match is appended to
// store and added to seen, so a key repeated later in the same pass is
// reported once. A failed append is collected in PersistErrors; the match
// is still reported and kept in seen.
func (c *Classifier) ClassifyPass(ctx context.Context, records []engine.CandidateRecord, seen ledger.Set, store Appender, today time.Time) PassOutcome {
	var out PassOutcome
	for _, rec := range records {
		v := c.Classify(rec, seen, today)
		out.Counts.add(v)
		if v != VerdictNew {
			continue
		}

		key := ledger.RecordKey(rec)
		if err := store.Append(ctx, key); err != nil {
			out.PersistErrors = append(out.PersistErrors, err)
		}
		seen.Add(key)

		link := rec.URL
		if link == "" {
			link = engine.WatchURL(rec.VideoID)
		}
		uploader := rec.Uploader
		if strings.TrimSpace(uploader) == "" {
			uploader = ledger.UnknownUploader
		}
		out.Matches = append(out.Matches, engine.Match{
			Title:      rec.Title,
			Uploader:   uploader,
			URL:        link,
			UploadDate: rec.UploadDate,
			FoundAt:    today,
		})
	}
	return out
}
