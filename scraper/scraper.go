// Package scraper drives the page-by-page extraction of a wishlist.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wishlist-backend/config"
	"wishlist-backend/fetcher"
	"wishlist-backend/models"
	"wishlist-backend/parser"
)

// PageFetcher retrieves the raw markup of one listing page. Satisfied by
// *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, pageIndex int) (string, error)
}

// PageParser extracts records from one page's markup. Satisfied by
// *parser.Parser.
type PageParser interface {
	Parse(markup string, pageIndex int) []*models.BookRecord
}

// Collector walks the listing pages in ascending order, one at a time, and
// aggregates the extracted records. Sequential order is load-bearing: the
// early-stop rule below only works when an empty page is observed after all
// earlier pages.
type Collector struct {
	cfg     *config.Config
	fetcher PageFetcher
	parser  PageParser
	metrics *Metrics
}

// NewCollector wires a pagination controller.
func NewCollector(cfg *config.Config, f PageFetcher, p PageParser, m *Metrics) *Collector {
	return &Collector{cfg: cfg, fetcher: f, parser: p, metrics: m}
}

// CollectAll fetches and parses pages 1..MaxPages. A transport failure on
// one page is logged and skipped: later pages are still attempted, since
// failures are assumed transient. A successful fetch that parses to zero
// records ends the run; that is the signal that pagination ran past the
// last real page.
func (c *Collector) CollectAll(ctx context.Context) ([]*models.BookRecord, *models.RunStats) {
	stats := &models.RunStats{
		StartTime:   time.Now(),
		FailedPages: make(map[int]string),
	}
	var books []*models.BookRecord

	for page := 1; page <= c.cfg.MaxPages; page++ {
		start := time.Now()
		markup, err := c.fetcher.Fetch(ctx, page)
		c.metrics.ObserveFetchDuration(time.Since(start))

		if err != nil {
			category := fetcher.ErrorLabel(err)
			stats.FailedPages[page] = category
			c.metrics.IncFetchError(category)
			slog.Error("page fetch failed",
				slog.Int("page", page),
				slog.String("category", category),
				slog.Any("error", err),
			)
			continue
		}

		stats.PagesFetched++
		c.metrics.IncPageFetched()

		records := c.parser.Parse(markup, page)
		if len(records) == 0 {
			stats.StoppedAtPage = page
			slog.Debug("empty page, stopping pagination", slog.Int("page", page))
			break
		}

		books = append(books, records...)
		c.metrics.AddRecords(len(records))
		slog.Debug("page extracted",
			slog.Int("page", page),
			slog.Int("records", len(records)),
		)
	}

	stats.EndTime = time.Now()
	stats.RecordsExtracted = len(books)
	return books, stats
}

// Result is what one extraction run hands to consumers. Books is never nil;
// Err is set only when the run was cut short by an internal fault.
type Result struct {
	Books []*models.BookRecord
	Stats *models.RunStats
	Err   string
}

// Service is the extraction entry point: a thin authorization gate over the
// collector that absorbs every failure mode into an empty-but-well-formed
// result.
type Service struct {
	cfg       *config.Config
	collector *Collector
	Metrics   *Metrics
}

// NewService builds the full pipeline: fetcher, parser, collector, metrics.
// The sink is optional diagnostic plumbing passed through to the fetcher.
func NewService(cfg *config.Config, sel parser.Selectors, sink fetcher.SnapshotSink) (*Service, error) {
	metrics := NewMetrics()

	f, err := fetcher.NewFetcher(cfg, sink)
	if err != nil {
		return nil, fmt.Errorf("initialising fetcher: %w", err)
	}
	p := parser.NewParser(cfg.Origin(), sel)

	return &Service{
		cfg:       cfg,
		collector: NewCollector(cfg, f, p, metrics),
		Metrics:   metrics,
	}, nil
}

// GetFavoriteBooks runs one extraction. It never returns an error: a
// missing credential yields an empty result without touching the network,
// and a panic anywhere in the run is recovered and reported via Result.Err.
func (s *Service) GetFavoriteBooks(ctx context.Context) (result *Result) {
	result = &Result{
		Books: []*models.BookRecord{},
		Stats: &models.RunStats{},
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("extraction run panicked", slog.Any("panic", r))
			s.Metrics.IncRun("panic")
			result.Books = []*models.BookRecord{}
			result.Err = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if strings.TrimSpace(s.cfg.CookieHeader) == "" {
		slog.Info("wishlist credential missing, returning empty result")
		s.Metrics.IncRun("no_credential")
		return result
	}

	books, stats := s.collector.CollectAll(ctx)
	if books == nil {
		books = []*models.BookRecord{}
	}
	result.Books = books
	result.Stats = stats
	s.Metrics.IncRun("ok")

	slog.Info("extraction run finished",
		slog.Int("records", len(books)),
		slog.Int("pages_fetched", stats.PagesFetched),
		slog.Int("pages_failed", len(stats.FailedPages)),
		slog.Duration("duration", stats.Duration()),
	)
	return result
}
