package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests    atomic.Int64
	SearchErrors      atomic.Int64
	ResolveRequests   atomic.Int64
	ResolveErrors     atomic.Int64
	ResolveFallbacks  atomic.Int64
	Passes            atomic.Int64
	PassFailures      atomic.Int64
	Matches           atomic.Int64
	RecordsSkipped    atomic.Int64
	PersistenceErrors atomic.Int64
}

var metricKeys = []string{
	"search_requests", "search_errors",
	"resolve_requests", "resolve_errors", "resolve_fallbacks",
	"passes", "pass_failures", "matches", "records_skipped",
	"persistence_errors",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"search_requests":    metrics.SearchRequests.Load(),
		"search_errors":      metrics.SearchErrors.Load(),
		"resolve_requests":   metrics.ResolveRequests.Load(),
		"resolve_errors":     metrics.ResolveErrors.Load(),
		"resolve_fallbacks":  metrics.ResolveFallbacks.Load(),
		"passes":             metrics.Passes.Load(),
		"pass_failures":      metrics.PassFailures.Load(),
		"matches":            metrics.Matches.Load(),
		"records_skipped":    metrics.RecordsSkipped.Load(),
		"persistence_errors": metrics.PersistenceErrors.Load(),
	}
}

// FormatMetrics returns metrics as simple "key value" lines.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ sub-package.
func IncrSearch()          { metrics.SearchRequests.Add(1) }
func IncrSearchError()     { metrics.SearchErrors.Add(1) }
func IncrResolve()         { metrics.ResolveRequests.Add(1) }
func IncrResolveError()    { metrics.ResolveErrors.Add(1) }
func IncrResolveFallback() { metrics.ResolveFallbacks.Add(1) }

// Incrementors for watcher/ sub-package.
func IncrPass()               { metrics.Passes.Add(1) }
func IncrPassFailure()        { metrics.PassFailures.Add(1) }
func AddMatches(n int)        { metrics.Matches.Add(int64(n)) }
func AddRecordsSkipped(n int) { metrics.RecordsSkipped.Add(int64(n)) }
func IncrPersistenceError()   { metrics.PersistenceErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(name string, start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
}
