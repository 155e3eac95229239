// ytwatch watches YouTube for new uploads matching a keyword.
//
// Polls YouTube on a fixed interval for same-day uploads whose title
// contains a search term, and prints each one once. Already reported
// videos are kept in an append-only ledger so restarts do not repeat them.
// Controlled from the console with start, stop and exit.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"

	"github.com/anatolykoptev/ytwatch/internal/console"
	"github.com/anatolykoptev/ytwatch/internal/engine"
	"github.com/anatolykoptev/ytwatch/internal/engine/sources"
	"github.com/anatolykoptev/ytwatch/internal/ledger"
	"github.com/anatolykoptev/ytwatch/internal/watcher"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(env.Str("LOG_LEVEL", "warn")),
	})))

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led, err := ledger.Open(ctx, cfg.LedgerBackend, cfg.LedgerPath, cfg.DatabaseURL)
	if err != nil {
		slog.Error("ledger init failed", slog.String("backend", cfg.LedgerBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := led.Close(); err != nil {
			slog.Warn("ledger close failed", slog.Any("error", err))
		}
	}()

	yt := sources.NewYouTube(cfg.HTTPClient,
		sources.WithAPIKeys(cfg.YouTubeAPIKey, cfg.YouTubeAPIKeyFallback),
		sources.WithLocation(cfg.Location),
		sources.WithResolveRate(cfg.ResolveRPS),
		sources.WithBrowserClient(cfg.BrowserClient),
		sources.WithLogger(slog.Default().With(slog.String("component", "youtube"))),
	)

	con := console.New(os.Stdin, os.Stdout, cfg.Term, cfg.Interval)
	loop := watcher.NewLoop(yt, led, con, watcher.LoopConfig{
		Term:       cfg.Term,
		Interval:   cfg.Interval,
		MaxResults: cfg.MaxResults,
		Location:   cfg.Location,
	})
	ctrl := watcher.NewController(ctx, loop, nil)

	slog.Info("starting ytwatch",
		slog.String("version", version),
		slog.String("term", cfg.Term),
		slog.Duration("interval", cfg.Interval),
		slog.String("ledger", cfg.LedgerBackend),
		slog.Bool("data_api", cfg.YouTubeAPIKey != ""),
	)

	con.Banner()
	if cfg.AutoStart && ctrl.Start() {
		slog.Info("watcher auto-started")
	}
	if err := con.Run(ctx, ctrl); err != nil {
		slog.Error("console input failed", slog.Any("error", err))
	}
}

func loadConfig() engine.Config {
	c := engine.Config{
		Term:                  env.Str("WATCH_TERM", engine.DefaultTerm),
		Interval:              env.Duration("WATCH_INTERVAL", engine.DefaultInterval),
		MaxResults:            env.Int("WATCH_MAX_RESULTS", engine.DefaultMaxResults),
		AutoStart:             parseBool(env.Str("WATCH_AUTOSTART", "false")),
		FetchTimeout:          env.Duration("FETCH_TIMEOUT", 15*time.Second),
		ResolveRPS:            env.Float("RESOLVE_RPS", 2),
		LedgerBackend:         strings.ToLower(env.Str("LEDGER_BACKEND", "file")),
		LedgerPath:            env.Str("LEDGER_PATH", engine.DefaultLedgerPath),
		DatabaseURL:           env.Str("DATABASE_URL", ""),
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
	}

	if tz := env.Str("WATCH_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			slog.Warn("unknown WATCH_TIMEZONE, using local time", slog.String("tz", tz), slog.Any("error", err))
		} else {
			c.Location = loc
		}
	}

	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	c.Normalize()

	opts := []stealth.ClientOption{stealth.WithTimeout(15)}
	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed, fetching pages directly", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
	}
	return c
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
