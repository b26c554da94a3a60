package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wishlist-backend/config"

	"github.com/jarcoal/httpmock"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://wishlist.test"
	cfg.CookieHeader = "session=abc123"
	cfg.MaxPages = 4
	cfg.Timeout = 2 * time.Second
	return cfg
}

func newTestFetcher(t *testing.T, cfg *config.Config, sink SnapshotSink) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()

	f, err := NewFetcher(cfg, sink)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	f.collector.WithTransport(transport)
	return f, transport
}

func TestPageURL(t *testing.T) {
	f, _ := newTestFetcher(t, testConfig(), nil)

	if got, want := f.PageURL(3), "http://wishlist.test/account/wishlist?page=3"; got != want {
		t.Fatalf("PageURL(3) = %q, want %q", got, want)
	}
}

func TestFetchReturnsMarkup(t *testing.T) {
	f, transport := newTestFetcher(t, testConfig(), nil)

	markup := `<html><body><div class="card"></div></body></html>`
	transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=1",
		httpmock.NewStringResponder(http.StatusOK, markup))

	got, err := f.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != markup {
		t.Fatalf("markup = %q, want %q", got, markup)
	}
}

func TestFetchSendsBrowserAndAuthHeaders(t *testing.T) {
	cfg := testConfig()
	f, transport := newTestFetcher(t, cfg, nil)

	var gotCookie, gotUA, gotAccept string
	transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=1",
		func(req *http.Request) (*http.Response, error) {
			gotCookie = req.Header.Get("Cookie")
			gotUA = req.Header.Get("User-Agent")
			gotAccept = req.Header.Get("Accept")
			return httpmock.NewStringResponse(http.StatusOK, "<html></html>"), nil
		})

	if _, err := f.Fetch(context.Background(), 1); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotCookie != cfg.CookieHeader {
		t.Errorf("Cookie header = %q, want %q", gotCookie, cfg.CookieHeader)
	}
	if gotUA != cfg.UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, cfg.UserAgent)
	}
	if gotAccept == "" {
		t.Error("Accept header not set")
	}
}

func TestFetchHTTPErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		label  string
	}{
		{status: http.StatusForbidden, label: LabelForbidden},
		{status: http.StatusNotFound, label: LabelNotFound},
		{status: http.StatusTooManyRequests, label: LabelRateLimited},
		{status: http.StatusInternalServerError, label: LabelHTTPError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			f, transport := newTestFetcher(t, testConfig(), nil)
			transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=2",
				httpmock.NewStringResponder(tt.status, ""))

			_, err := f.Fetch(context.Background(), 2)
			if err == nil {
				t.Fatalf("fetch succeeded, want transport error")
			}

			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error type = %T, want *TransportError", err)
			}
			if te.Status != tt.status {
				t.Errorf("status = %d, want %d", te.Status, tt.status)
			}
			if te.Label != tt.label {
				t.Errorf("label = %q, want %q", te.Label, tt.label)
			}
			if te.Page != 2 {
				t.Errorf("page = %d, want 2", te.Page)
			}
		})
	}
}

func TestFetchNetworkErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{
			name:  "connection refused",
			err:   &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			label: LabelConnection,
		},
		{
			name:  "dns timeout",
			err:   &net.DNSError{IsTimeout: true},
			label: LabelTimeout,
		},
		{
			name:  "opaque failure",
			err:   errors.New("boom"),
			label: LabelOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, transport := newTestFetcher(t, testConfig(), nil)
			transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=1",
				httpmock.NewErrorResponder(tt.err))

			_, err := f.Fetch(context.Background(), 1)
			if err == nil {
				t.Fatalf("fetch succeeded, want transport error")
			}
			if got := ErrorLabel(err); got != tt.label {
				t.Fatalf("label = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestFetchCanceledContext(t *testing.T) {
	f, _ := newTestFetcher(t, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, 1)
	if err == nil {
		t.Fatalf("fetch succeeded, want error")
	}
	if got := ErrorLabel(err); got != LabelCanceled {
		t.Fatalf("label = %q, want %q", got, LabelCanceled)
	}
}

type recordingSink struct {
	mu    sync.Mutex
	pages map[int]string
}

func (s *recordingSink) Snapshot(pageIndex int, markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages == nil {
		s.pages = make(map[int]string)
	}
	s.pages[pageIndex] = markup
}

func TestFetchMirrorsMarkupToSink(t *testing.T) {
	sink := &recordingSink{}
	f, transport := newTestFetcher(t, testConfig(), sink)

	transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=1",
		httpmock.NewStringResponder(http.StatusOK, "<html>page one</html>"))
	transport.RegisterResponder("GET", "http://wishlist.test/account/wishlist?page=2",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	if _, err := f.Fetch(context.Background(), 1); err != nil {
		t.Fatalf("fetch page 1: %v", err)
	}
	if _, err := f.Fetch(context.Background(), 2); err == nil {
		t.Fatalf("fetch page 2 succeeded, want error")
	}

	if got := sink.pages[1]; got != "<html>page one</html>" {
		t.Errorf("sink page 1 = %q", got)
	}
	if _, ok := sink.pages[2]; ok {
		t.Error("failed fetch must not reach the sink")
	}
}

func TestLRUSinkBound(t *testing.T) {
	sink, err := NewLRUSink(2)
	if err != nil {
		t.Fatalf("new lru sink: %v", err)
	}

	sink.Snapshot(1, "one")
	sink.Snapshot(2, "two")
	sink.Snapshot(3, "three")

	if _, ok := sink.Get(1); ok {
		t.Error("page 1 should have been evicted")
	}
	if markup, ok := sink.Get(3); !ok || markup != "three" {
		t.Errorf("page 3 = %q, %v", markup, ok)
	}
}

func TestDirSinkWritesFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("new dir sink: %v", err)
	}

	sink.Snapshot(7, "<html>seven</html>")

	raw, err := os.ReadFile(filepath.Join(dir, "page-7.html"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(raw) != "<html>seven</html>" {
		t.Fatalf("snapshot content = %q", raw)
	}
}
