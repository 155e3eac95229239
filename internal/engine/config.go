package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Term         string
	Interval     time.Duration
	MaxResults   int
	AutoStart    bool
	Location     *time.Location
	FetchTimeout time.Duration
	ResolveRPS   float64

	LedgerBackend string // file, sqlite or postgres
	LedgerPath    string // file path for file/sqlite backends
	DatabaseURL   string // postgres DSN

	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = HTML pages fetched with HTTPClient
}

// Defaults used when the environment leaves a value unset.
const (
	DefaultTerm       = "line rider"
	DefaultInterval   = 5 * time.Minute
	DefaultMaxResults = 20
	DefaultLedgerPath = "seen_videos.txt"
)

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Term == "" {
		c.Term = DefaultTerm
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.ResolveRPS <= 0 {
		c.ResolveRPS = 2
	}
	if c.LedgerBackend == "" {
		c.LedgerBackend = "file"
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
}
