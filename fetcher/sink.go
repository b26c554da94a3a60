package fetcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SnapshotSink receives raw page markup for diagnostics. Implementations
// are side-effect only: the fetcher ignores anything they do, and fetch
// results must be identical with or without a sink attached.
type SnapshotSink interface {
	Snapshot(pageIndex int, markup string)
}

// LRUSink keeps the most recent page snapshots in a bounded in-memory
// cache, for the debug endpoint.
type LRUSink struct {
	cache *lru.Cache[int, string]
}

// NewLRUSink builds a sink retaining at most size pages.
func NewLRUSink(size int) (*LRUSink, error) {
	cache, err := lru.New[int, string](size)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &LRUSink{cache: cache}, nil
}

// Snapshot stores the markup, evicting the least recently fetched page.
func (s *LRUSink) Snapshot(pageIndex int, markup string) {
	s.cache.Add(pageIndex, markup)
}

// Get returns the retained markup for a page, if still cached.
func (s *LRUSink) Get(pageIndex int) (string, bool) {
	return s.cache.Get(pageIndex)
}

// DirSink mirrors each fetched page to a file in dir. Write failures are
// logged and otherwise ignored.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
	}
	return &DirSink{dir: dir}, nil
}

// Snapshot writes the markup to page-<n>.html, overwriting earlier runs.
func (s *DirSink) Snapshot(pageIndex int, markup string) {
	path := filepath.Join(s.dir, fmt.Sprintf("page-%d.html", pageIndex))
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		slog.Debug("snapshot write failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}

// MultiSink fans one snapshot out to several sinks.
type MultiSink []SnapshotSink

func (s MultiSink) Snapshot(pageIndex int, markup string) {
	for _, sink := range s {
		if sink != nil {
			sink.Snapshot(pageIndex, markup)
		}
	}
}
