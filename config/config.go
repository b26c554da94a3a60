package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds extractor and server configuration.
type Config struct {
	BaseURL           string
	ListingPath       string
	PageParam         string
	MaxPages          int
	Timeout           time.Duration
	UserAgent         string
	CookieHeader      string // session credential, sent verbatim as the Cookie header
	ListenAddr        string
	SnapshotDir       string
	SnapshotCacheSize int
	Verbose           bool
}

// DefaultConfig returns conservative defaults for the wishlist target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://books.example.com",
		ListingPath:       "/account/wishlist",
		PageParam:         "page",
		MaxPages:          5,
		Timeout:           10 * time.Second,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		CookieHeader:      "",
		ListenAddr:        ":8080",
		SnapshotDir:       "",
		SnapshotCacheSize: 8,
		Verbose:           false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if !strings.HasPrefix(c.ListingPath, "/") {
		return fmt.Errorf("listing path must start with /")
	}
	if c.PageParam == "" {
		return fmt.Errorf("page parameter cannot be empty")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.SnapshotCacheSize < 0 {
		return fmt.Errorf("snapshot cache size cannot be negative")
	}

	return nil
}

// Origin returns the base URL without a trailing slash, suitable for
// prefixing relative paths found in the markup.
func (c *Config) Origin() string {
	return strings.TrimSuffix(c.BaseURL, "/")
}

// EnvString reads a string from the environment.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer from the environment.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, true, nil
}
