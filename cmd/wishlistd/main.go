package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wishlist-backend/config"
	"wishlist-backend/fetcher"
	"wishlist-backend/parser"
	"wishlist-backend/scraper"
	"wishlist-backend/server"

	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience: a missing .env is not an error.
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	baseDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("WISHLIST_BASE_URL"); ok {
		baseDefault = value
	}
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("WISHLIST_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid WISHLIST_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	listenDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("WISHLIST_LISTEN_ADDR"); ok {
		listenDefault = value
	}
	configPathDefault := ""
	if value, ok := config.EnvString("WISHLIST_CONFIG"); ok {
		configPathDefault = value
	}
	snapshotDirDefault := defaultCfg.SnapshotDir
	if value, ok := config.EnvString("WISHLIST_SNAPSHOT_DIR"); ok {
		snapshotDirDefault = value
	}

	baseURL := flag.String("base-url", baseDefault, "Wishlist site base URL")
	maxPages := flag.Int("pages", pagesDefault, "Upper bound on listing pages to walk")
	listenAddr := flag.String("listen", listenDefault, "HTTP listen address")
	configPath := flag.String("config", configPathDefault, "Optional YAML config file")
	snapshotDir := flag.String("snapshot-dir", snapshotDirDefault, "Directory for raw page snapshots (empty to disable)")
	snapshotCache := flag.Int("snapshot-cache", defaultCfg.SnapshotCacheSize, "Pages retained for the debug snapshot endpoint (0 to disable)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.MaxPages = *maxPages
	cfg.ListenAddr = *listenAddr
	cfg.SnapshotDir = *snapshotDir
	cfg.SnapshotCacheSize = *snapshotCache
	cfg.Verbose = *verbose
	if value, ok := config.EnvString("WISHLIST_SESSION_COOKIE"); ok {
		cfg.CookieHeader = value
	}

	selectors := parser.DefaultSelectors()
	if *configPath != "" {
		file, err := config.LoadFile(*configPath)
		if err != nil {
			slog.Error("loading config file", slog.Any("error", err))
			os.Exit(1)
		}
		file.Apply(cfg)
		selectors = file.SelectorsOrDefault()
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.CookieHeader == "" {
		slog.Warn("WISHLIST_SESSION_COOKIE is not set; the favorites endpoint will serve empty results")
	}

	var sinks fetcher.MultiSink
	var snapshots *fetcher.LRUSink
	if cfg.SnapshotCacheSize > 0 {
		lruSink, err := fetcher.NewLRUSink(cfg.SnapshotCacheSize)
		if err != nil {
			slog.Error("initialising snapshot cache", slog.Any("error", err))
			os.Exit(1)
		}
		snapshots = lruSink
		sinks = append(sinks, lruSink)
	}
	if cfg.SnapshotDir != "" {
		dirSink, err := fetcher.NewDirSink(cfg.SnapshotDir)
		if err != nil {
			slog.Error("initialising snapshot directory", slog.Any("error", err))
			os.Exit(1)
		}
		sinks = append(sinks, dirSink)
	}
	var sink fetcher.SnapshotSink
	if len(sinks) > 0 {
		sink = sinks
	}

	svc, err := scraper.NewService(cfg, selectors, sink)
	if err != nil {
		slog.Error("initialising extraction service", slog.Any("error", err))
		os.Exit(1)
	}

	srv := server.New(svc, svc.Metrics.Registry, snapshots)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("wishlist service listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("base_url", cfg.BaseURL),
			slog.Int("pages", cfg.MaxPages),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", slog.Any("error", err))
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
