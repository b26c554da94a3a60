// Package fetcher retrieves authenticated wishlist listing pages.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"wishlist-backend/config"

	"github.com/gocolly/colly/v2"
)

const (
	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// Fetcher issues one authenticated GET per listing page and returns the raw
// markup. The wishlist target serves different markup (or rejects the
// request outright) for clients that do not look like a browser, hence the
// user-agent and accept headers on every request.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	sink      SnapshotSink

	// The collector runs synchronously and the handlers below write into the
	// capture fields, so fetches are serialized with mu.
	mu      sync.Mutex
	body    []byte
	failure *TransportError
}

// NewFetcher builds a fetcher from cfg. The sink is optional; when set it
// receives a copy of every successfully fetched page and must never
// influence the result.
func NewFetcher(cfg *config.Config, sink SnapshotSink) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		sink:      sink,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cookie", f.cfg.CookieHeader)
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguageHeader)
	})
	collector.OnResponse(func(r *colly.Response) {
		f.body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		f.failure = classify(err, statusCode)
	})

	return f, nil
}

// Fetch retrieves the listing page at the given 1-based index. On success
// it returns the raw markup; every failure is a *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, pageIndex int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		te := classify(err, 0)
		te.Page = pageIndex
		return "", te
	}

	f.body = nil
	f.failure = nil

	visitErr := f.collector.Visit(f.PageURL(pageIndex))

	if f.failure != nil {
		f.failure.Page = pageIndex
		return "", f.failure
	}
	if visitErr != nil {
		te := classify(visitErr, 0)
		te.Page = pageIndex
		return "", te
	}

	markup := string(f.body)
	if f.sink != nil {
		f.sink.Snapshot(pageIndex, markup)
	}
	return markup, nil
}

// PageURL builds the listing URL for a page index.
func (f *Fetcher) PageURL(pageIndex int) string {
	query := url.Values{}
	query.Set(f.cfg.PageParam, strconv.Itoa(pageIndex))
	return strings.TrimSuffix(f.cfg.BaseURL, "/") + f.cfg.ListingPath + "?" + query.Encode()
}
