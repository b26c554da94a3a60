// Package server exposes the extraction service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"wishlist-backend/fetcher"
	"wishlist-backend/models"
	"wishlist-backend/scraper"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BookSource is the read operation the UI consumes. Satisfied by
// *scraper.Service.
type BookSource interface {
	GetFavoriteBooks(ctx context.Context) *scraper.Result
}

// Server routes the consumer-facing endpoints: the favorites read
// operation, health, Prometheus metrics, and (when a snapshot cache is
// attached) raw page snapshots for debugging.
type Server struct {
	source    BookSource
	snapshots *fetcher.LRUSink
	router    chi.Router
}

// New assembles the router. registry and snapshots may be nil, in which
// case the corresponding endpoints are not mounted.
func New(source BookSource, registry *prometheus.Registry, snapshots *fetcher.LRUSink) *Server {
	s := &Server{
		source:    source,
		snapshots: snapshots,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/favorites", s.handleFavorites)
	r.Get("/healthz", s.handleHealth)
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	if snapshots != nil {
		r.Get("/debug/snapshots/{page}", s.handleSnapshot)
	}

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// favoritesResponse always carries the books key; consumers must never
// receive a body without it.
type favoritesResponse struct {
	Books []*models.BookRecord `json:"books"`
	Error string               `json:"error,omitempty"`
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	result := s.source.GetFavoriteBooks(r.Context())

	resp := favoritesResponse{Books: result.Books}
	if resp.Books == nil {
		resp.Books = []*models.BookRecord{}
	}

	status := http.StatusOK
	if result.Err != "" {
		resp.Error = result.Err
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		http.Error(w, "invalid page index", http.StatusBadRequest)
		return
	}

	markup, ok := s.snapshots.Get(page)
	if !ok {
		http.Error(w, "no snapshot retained for page", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
