// Package pipeline validates, de-duplicates, and writes extracted records.
package pipeline

import (
	"fmt"
	"strings"

	"wishlist-backend/models"
)

// OutputWriter defines the interface for record output.
type OutputWriter interface {
	Write(books []*models.BookRecord) error
	Close() error
	Validate() error
}

// Pipeline filters a run's records and hands them to a writer. Extraction
// is strictly sequential, so there is no buffering or worker machinery:
// one run, one Write.
type Pipeline struct {
	writer  OutputWriter
	seen    map[string]struct{}
	dropped map[string]int
}

// NewPipeline builds a pipeline around the given writer.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:  writer,
		seen:    make(map[string]struct{}),
		dropped: make(map[string]int),
	}
}

// Run validates and de-duplicates books, then writes the surviving batch.
func (p *Pipeline) Run(books []*models.BookRecord) error {
	batch := make([]*models.BookRecord, 0, len(books))
	for _, book := range books {
		if book == nil || strings.TrimSpace(book.Title) == "" || book.ID == "" {
			p.dropped["invalid_record"]++
			continue
		}
		if _, ok := p.seen[book.ID]; ok {
			p.dropped["duplicate_id"]++
			continue
		}
		p.seen[book.ID] = struct{}{}
		batch = append(batch, book)
	}

	if len(batch) == 0 {
		return nil
	}
	if err := p.writer.Write(batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

// Dropped returns a copy of the per-reason drop counters.
func (p *Pipeline) Dropped() map[string]int {
	out := make(map[string]int, len(p.dropped))
	for reason, count := range p.dropped {
		out[reason] = count
	}
	return out
}
