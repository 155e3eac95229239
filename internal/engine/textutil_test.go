package engine

import (
	"testing"
	"time"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Line Rider", "line rider"},
		{"  LINE   RIDER  ", "line rider"},
		{"line\trider\n", "line rider"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseUploadDate(t *testing.T) {
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"date", "2026-10-19", true},
		{"compact", "20261019", true},
		{"rfc3339 with offset", "2026-10-19T23:30:00-07:00", true},
		{"rfc3339 utc", "2026-10-19T01:00:00Z", true},
		{"empty", "", false},
		{"garbage", "yesterday", false},
		{"bad month", "2026-13-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUploadDate(tt.in, time.UTC)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if !SameDay(a, a.Add(23*time.Hour), time.UTC) {
		t.Error("same date should match")
	}
	if SameDay(a, a.Add(24*time.Hour), time.UTC) {
		t.Error("next date should not match")
	}
	// 23:00 UTC is already the next day two hours east.
	east := time.FixedZone("UTC+2", 2*3600)
	if SameDay(a, a.Add(23*time.Hour), east) {
		t.Error("zone must be applied before comparing")
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("WatchURL = %q", got)
	}
}

func TestConfigNormalize(t *testing.T) {
	var c Config
	c.Normalize()
	if c.Term != DefaultTerm || c.Interval != DefaultInterval || c.MaxResults != DefaultMaxResults {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.LedgerBackend != "file" || c.LedgerPath != DefaultLedgerPath {
		t.Errorf("ledger defaults not applied: %q %q", c.LedgerBackend, c.LedgerPath)
	}
	if c.HTTPClient == nil || c.HTTPClient.Timeout != c.FetchTimeout {
		t.Error("HTTP client should use the fetch timeout")
	}
}
