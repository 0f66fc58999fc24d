// Package api implements the bridgewatch REST API.
// It exposes the catalog, the aggregation views and the live sensor
// simulation over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/bridgewatch/bridgewatch/internal/catalog"
	"github.com/bridgewatch/bridgewatch/internal/photos"
	"github.com/bridgewatch/bridgewatch/internal/predictor"
	"github.com/bridgewatch/bridgewatch/internal/store"
	"github.com/bridgewatch/bridgewatch/pkg/filter"
	"github.com/bridgewatch/bridgewatch/pkg/infra"
	"github.com/bridgewatch/bridgewatch/pkg/simulator"
	"github.com/bridgewatch/bridgewatch/pkg/sorter"
)

// Recorder receives the ticks of one simulation session.
type Recorder interface {
	Session(id string) simulator.Observer
}

// Options configures a Handler. Zero values select defaults.
type Options struct {
	Locale      language.Tag
	SimInterval time.Duration
	SimSeed     uint64
	Recorder    Recorder
	Now         func() time.Time
}

// Handler is the top-level API handler.
type Handler struct {
	catalog  *catalog.Service
	locale   language.Tag
	interval time.Duration
	seed     uint64
	recorder Recorder
	now      func() time.Time

	// Simulation sessions outlive their request once the connection is
	// hijacked, so they hang off a handler-owned context instead.
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// NewHandler creates a new API handler.
func NewHandler(c *catalog.Service, opts Options) *Handler {
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		catalog:  c,
		locale:   opts.Locale,
		interval: opts.SimInterval,
		seed:     opts.SimSeed,
		recorder: opts.Recorder,
		now:      opts.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Shutdown stops every live simulation session and waits for them to
// finish. New sessions are refused afterwards. http.Server.Shutdown does not
// track hijacked connections, so the daemon calls this after it.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginSession registers a simulation session unless the handler is
// shutting down.
func (h *Handler) beginSession() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions.Add(1)
	return true
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Records
	mux.HandleFunc("GET /api/infrastructure", h.handleList)
	mux.HandleFunc("POST /api/infrastructure", h.handleCreate)
	mux.HandleFunc("GET /api/infrastructure/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/infrastructure/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/infrastructure/{id}", h.handleDelete)
	mux.HandleFunc("GET /api/infrastructure/{id}/assessment", h.handleAssessment)
	mux.HandleFunc("GET /api/infrastructure/{id}/predictions", h.handlePredictions)
	mux.HandleFunc("GET /api/infrastructure/{id}/budget", h.handleBudget)
	mux.HandleFunc("GET /api/infrastructure/{id}/forecast", h.handleForecast)
	mux.HandleFunc("GET /api/infrastructure/{id}/photo", h.handlePhoto)
	mux.HandleFunc("GET /api/infrastructure/{id}/simulate", h.handleSimulate)

	// Analysis
	mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /api/budget/summary", h.handleCitySummary)
	mux.HandleFunc("GET /api/compare", h.handleCompare)
	mux.HandleFunc("GET /api/analytics/dashboard", h.handleDashboard)
	mux.HandleFunc("GET /api/areas", h.handleAreas)
}

// query reads the filter and sort parameters shared by list endpoints.
func (h *Handler) query(r *http.Request) (filter.Criteria, sorter.Sorter, error) {
	q := r.URL.Query()
	c, err := filter.FromQuery(q)
	if err != nil {
		return filter.Criteria{}, sorter.Sorter{}, err
	}

	s := sorter.New(h.locale)
	if v := q.Get("sort"); v != "" {
		k, err := sorter.ParseKey(v)
		if err != nil {
			return filter.Criteria{}, sorter.Sorter{}, err
		}
		s.Key = k
	}
	if v := q.Get("dir"); v != "" {
		d, err := sorter.ParseDirection(v)
		if err != nil {
			return filter.Criteria{}, sorter.Sorter{}, err
		}
		s.Direction = d
	}
	return c, s, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var se *predictor.StatusError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, photos.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, catalog.ErrTooManyCompared),
		errors.Is(err, infra.ErrInvalidEnum),
		errors.Is(err, filter.ErrUnknownField),
		errors.Is(err, sorter.ErrUnknownKey):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrPredictorUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &se):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}
