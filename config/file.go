package config

import (
	"fmt"
	"os"
	"time"

	"wishlist-backend/parser"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML overlay. Every field is optional; zero values
// leave the corresponding Config or selector default untouched.
type File struct {
	BaseURL        string            `yaml:"base_url"`
	ListingPath    string            `yaml:"listing_path"`
	PageParam      string            `yaml:"page_param"`
	MaxPages       int               `yaml:"max_pages"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	UserAgent      string            `yaml:"user_agent"`
	ListenAddr     string            `yaml:"listen_addr"`
	SnapshotDir    string            `yaml:"snapshot_dir"`
	// Pointer so an explicit 0 (disable the snapshot endpoint) is
	// distinguishable from the key being absent.
	SnapshotCacheSize *int              `yaml:"snapshot_cache_size"`
	Selectors         *parser.Selectors `yaml:"selectors"`
}

// LoadFile reads and decodes a YAML configuration file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the file's non-zero values onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.ListingPath != "" {
		cfg.ListingPath = f.ListingPath
	}
	if f.PageParam != "" {
		cfg.PageParam = f.PageParam
	}
	if f.MaxPages > 0 {
		cfg.MaxPages = f.MaxPages
	}
	if f.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(f.TimeoutSeconds) * time.Second
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.ListenAddr != "" {
		cfg.ListenAddr = f.ListenAddr
	}
	if f.SnapshotDir != "" {
		cfg.SnapshotDir = f.SnapshotDir
	}
	if f.SnapshotCacheSize != nil {
		cfg.SnapshotCacheSize = *f.SnapshotCacheSize
	}
}

// SelectorsOrDefault returns the overridden selector set, falling back to
// the built-in defaults for anything the file leaves unset.
func (f *File) SelectorsOrDefault() parser.Selectors {
	if f == nil || f.Selectors == nil {
		return parser.DefaultSelectors()
	}
	return f.Selectors.OrDefaults()
}
