// Package models defines data structures for the wishlist extractor.
package models

import "time"

// UnknownAuthor is the sentinel used when no author label can be resolved
// from a book card.
const UnknownAuthor = "Unknown Author"

// BookRecord represents one wishlist entry extracted from a listing page.
// Optional fields are omitted from JSON entirely when absent; they are never
// serialized as empty strings.
type BookRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	CoverImage   string `json:"coverImage,omitempty"`
	Price        string `json:"price,omitempty"`
	Availability string `json:"availability,omitempty"`
	URL          string `json:"url,omitempty"`
}

// RunStats holds bookkeeping for one extraction run.
type RunStats struct {
	StartTime        time.Time
	EndTime          time.Time
	PagesFetched     int
	FailedPages      map[int]string // page index -> error category
	RecordsExtracted int
	StoppedAtPage    int // first empty page, 0 when the page set was exhausted
}

// Duration returns the wall-clock time of the run.
func (s *RunStats) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
