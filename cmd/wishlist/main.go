// Command wishlist runs one extraction and exports the records to a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wishlist-backend/config"
	"wishlist-backend/fetcher"
	"wishlist-backend/models"
	"wishlist-backend/parser"
	"wishlist-backend/pipeline"
	"wishlist-backend/scraper"

	"github.com/joho/godotenv"
)

func main() {
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

	baseURL := flag.String("base-url", baseDefault, "Wishlist site base URL")
	maxPages := flag.Int("pages", pagesDefault, "Upper bound on listing pages to walk")
	configPath := flag.String("config", "", "Optional YAML config file")
	outputFile := flag.String("output", "output/wishlist.csv", "Output file path")
	outputFormat := flag.String("format", "csv", "Output format: csv, json, or dual")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for raw page snapshots (empty to disable)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.MaxPages = *maxPages
	cfg.SnapshotDir = *snapshotDir
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

	var sink fetcher.SnapshotSink
	if cfg.SnapshotDir != "" {
		dirSink, err := fetcher.NewDirSink(cfg.SnapshotDir)
		if err != nil {
			slog.Error("initialising snapshot directory", slog.Any("error", err))
			os.Exit(1)
		}
		sink = dirSink
	}

	svc, err := scraper.NewService(cfg, selectors, sink)
	if err != nil {
		slog.Error("initialising extraction service", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(strings.ToLower(*outputFormat), *outputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := svc.GetFavoriteBooks(ctx)
	if result.Err != "" {
		slog.Error("extraction failed", slog.String("error", result.Err))
	}

	p := pipeline.NewPipeline(writer)
	if err := p.Run(result.Books); err != nil {
		slog.Error("writing records", slog.Any("error", err))
		os.Exit(1)
	}
	// Validation stats the underlying file, so it has to run before Close.
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result, p.Dropped(), *outputFile)
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *scraper.Result, dropped map[string]int, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Extraction complete")

	stats := result.Stats
	if stats == nil {
		stats = &models.RunStats{}
	}

	fmt.Printf("  Records:        %d\n", len(result.Books))
	fmt.Printf("  Pages fetched:  %d\n", stats.PagesFetched)
	fmt.Printf("  Pages failed:   %d\n", len(stats.FailedPages))
	if len(stats.FailedPages) > 0 {
		fmt.Printf("  Failures:       %v\n", stats.FailedPages)
	}
	if stats.StoppedAtPage > 0 {
		fmt.Printf("  Last page:      %d (empty)\n", stats.StoppedAtPage)
	}
	if len(dropped) > 0 {
		fmt.Printf("  Dropped:        %v\n", dropped)
	}
	fmt.Printf("  Duration:       %v\n", stats.Duration())
	fmt.Printf("  Output file:    %s\n", outputFile)
	fmt.Println(separator)
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
