// Package api serves dashboard series over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"protocol-stats/internal/cache"
	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/idhash"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/reporting"
	"protocol-stats/internal/stats"
)

// InputLoader reads the raw inputs of one network.
type InputLoader interface {
	Load(ctx context.Context, network string, cfg domain.QueryConfig) (*pipeline.Inputs, error)
}

// HealthCheck is one dependency checked by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Network        *chain.Network
	Query          domain.QueryConfig // defaults, overridden per request
	Loader         InputLoader
	Runner         *pipeline.Runner
	Cache          cache.Cache            // nil disables caching
	Metrics        *observability.Metrics // may be nil
	MetricsHandler http.Handler           // mounted on /metrics when set
	HealthChecks   []HealthCheck
	Logger         *log.Logger
}

// Server is the HTTP API.
type Server struct {
	opts    Options
	cache   cache.Cache
	flights singleflight.Group
	started time.Time

	mu           sync.Mutex
	lastComputed time.Time
	computations int
	cacheHits    int
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &Server{opts: opts, cache: c, started: time.Now()}
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /api/series", s.handleList)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/{series}", s.handleSeries)
	mux.HandleFunc("POST /api/cache/invalidate", s.handleInvalidate)

	return s.instrument(mux)
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(mux *http.ServeMux) http.Handler {
	if s.opts.Metrics == nil {
		return mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}

		mux.ServeHTTP(rec, r)
		s.opts.Metrics.RecordHTTPRequest(route, rec.code, time.Since(start).Seconds())
	})
}

// query is the per-request window and output format.
type query struct {
	cfg    domain.QueryConfig
	format string
}

// params returns the cache key params of q.
func (q query) params() []string {
	return []string{
		strconv.FormatInt(q.cfg.WindowStart, 10),
		strconv.FormatInt(q.cfg.WindowEnd, 10),
		strconv.FormatInt(q.cfg.BucketPeriod, 10),
		q.format,
	}
}

// parseQuery reads from, to and period (Unix seconds) and format (json, csv).
func (s *Server) parseQuery(r *http.Request) (query, error) {
	q := query{cfg: s.opts.Query, format: "json"}
	values := r.URL.Query()

	parse := func(name string, dst *int64) error {
		raw := values.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return &domain.ConfigurationError{Field: name, Reason: fmt.Sprintf("must be Unix seconds, got %q", raw)}
		}
		*dst = v
		return nil
	}
	if err := parse("from", &q.cfg.WindowStart); err != nil {
		return q, err
	}
	if err := parse("to", &q.cfg.WindowEnd); err != nil {
		return q, err
	}
	if err := parse("period", &q.cfg.BucketPeriod); err != nil {
		return q, err
	}

	if f := values.Get("format"); f != "" {
		if f != "json" && f != "csv" {
			return q, &domain.ConfigurationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", f)}
		}
		q.format = f
	}

	return q, q.cfg.Validate()
}

// dashboard computes the dashboard for cfg. Concurrent requests for the same
// window share one computation.
func (s *Server) dashboard(ctx context.Context, q query) (*pipeline.Dashboard, *pipeline.Inputs, error) {
	type result struct {
		d  *pipeline.Dashboard
		in *pipeline.Inputs
	}

	key := cache.Key(s.opts.Network.Name, "dashboard", q.params()[:3]...)
	v, err, _ := s.flights.Do(key, func() (any, error) {
		in, err := s.opts.Loader.Load(ctx, s.opts.Network.Name, q.cfg)
		if err != nil {
			return nil, fmt.Errorf("load inputs: %w", err)
		}
		d, err := s.opts.Runner.Run(in, s.opts.Network, q.cfg)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.lastComputed = time.Now()
		s.computations++
		s.mu.Unlock()

		return result{d: d, in: in}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(result)
	return res.d, res.in, nil
}

// cached serves key from the cache, or renders and stores it.
// render returns the body to cache; it is stored as a JSON string.
func (s *Server) cached(ctx context.Context, key string, render func() (string, error)) (string, error) {
	var body string
	hit, err := s.cache.Get(ctx, key, &body)
	if err != nil {
		s.opts.Logger.Printf("WARN: cache get %s: %v", key, err)
	}
	if hit {
		s.recordCache(true)
		return body, nil
	}
	s.recordCache(false)

	body, err = render()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, body); err != nil {
		s.opts.Logger.Printf("WARN: cache set %s: %v", key, err)
	}
	return body, nil
}

func (s *Server) recordCache(hit bool) {
	if hit {
		s.mu.Lock()
		s.cacheHits++
		s.mu.Unlock()
	}
	if s.opts.Metrics == nil {
		return
	}
	if hit {
		s.opts.Metrics.CacheHits.Inc()
	} else {
		s.opts.Metrics.CacheMisses.Inc()
	}
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("series")
	if !knownSeries(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown series %q", name))
		return
	}

	q, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	key := cache.Key(s.opts.Network.Name, name, q.params()...)
	body, err := s.cached(r.Context(), key, func() (string, error) {
		d, _, err := s.dashboard(r.Context(), q)
		if err != nil {
			return "", err
		}
		if q.format == "csv" {
			table, err := reporting.SeriesTable(d, name)
			if err != nil {
				return "", err
			}
			return reporting.RenderCSV(table)
		}
		series, ok := d.Series(name)
		if !ok {
			return "", fmt.Errorf("%s: %w", name, reporting.ErrSeriesNotComputed)
		}
		data, err := json.Marshal(series)
		return string(data), err
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	contentType := "application/json"
	if q.format == "csv" {
		contentType = "text/csv"
	}
	writeBody(w, r, contentType, body)
}

// SummaryResponse is the JSON response for /api/summary.
type SummaryResponse struct {
	Network     string                   `json:"network"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Series      []pipeline.SeriesSummary `json:"series"`
	Coverage    *pipeline.CoverageResult `json:"coverage"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	key := cache.Key(s.opts.Network.Name, "summary", q.params()...)
	body, err := s.cached(r.Context(), key, func() (string, error) {
		d, _, err := s.dashboard(r.Context(), q)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(SummaryResponse{
			Network:     d.Network,
			GeneratedAt: d.GeneratedAt,
			Series:      d.Summaries(),
			Coverage:    d.Coverage,
			Warnings:    d.Warnings,
		})
		return string(data), err
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	writeBody(w, r, "application/json", body)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	key := cache.Key(s.opts.Network.Name, "report", q.params()...)
	body, err := s.cached(r.Context(), key, func() (string, error) {
		d, in, err := s.dashboard(r.Context(), q)
		if err != nil {
			return "", err
		}
		return reporting.RenderMarkdown(reporting.NewGenerator().Generate(d, in)), nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	writeBody(w, r, "text/markdown; charset=utf-8", body)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"network": s.opts.Network.Name,
		"series":  stats.Names,
	})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Invalidate(r.Context(), s.opts.Network.Name); err != nil {
		s.fail(w, err)
		return
	}
	s.opts.Logger.Printf("Cache invalidated for %s", s.opts.Network.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := make(map[string]string, len(s.opts.HealthChecks))

	for _, hc := range s.opts.HealthChecks {
		checks[hc.Name] = "healthy"
		if err := hc.Check(r.Context()); err != nil {
			checks[hc.Name] = "unhealthy"
			status = "degraded"
			s.opts.Logger.Printf("WARN: %s health check failed: %v", hc.Name, err)
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Network      string    `json:"network"`
	Uptime       string    `json:"uptime"`
	LastComputed time.Time `json:"last_computed,omitempty"`
	Computations int       `json:"computations"`
	CacheHits    int       `json:"cache_hits"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:       "running",
		Network:      s.opts.Network.Name,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		LastComputed: s.lastComputed,
		Computations: s.computations,
		CacheHits:    s.cacheHits,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reporting.ErrSeriesNotComputed):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPrecondition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.opts.Logger.Printf("ERROR: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func knownSeries(name string) bool {
	for _, n := range stats.Names {
		if n == name {
			return true
		}
	}
	return false
}

// writeBody writes a rendered body with its entity tag.
// A matching If-None-Match gets 304 without a body.
func writeBody(w http.ResponseWriter, r *http.Request, contentType, body string) {
	etag := idhash.ComputeETag([]byte(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
