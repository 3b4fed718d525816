// Package httpapi wires the HTTP surface: signal streaming
// (SSE/websocket), recent-signals lookup, health, and Prometheus
// metrics. No route consults the live gate.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/infrastructure/activity"
	"github.com/hoangpro/omen/infrastructure/background"
	"github.com/hoangpro/omen/infrastructure/metrics"
	"github.com/hoangpro/omen/infrastructure/reconcile"
	"github.com/hoangpro/omen/infrastructure/repository"
	"github.com/hoangpro/omen/infrastructure/routing"
	"github.com/hoangpro/omen/infrastructure/streaming"
)

// Config carries the server's tunables.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 8080, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 60 * time.Second}
}

// Deps collects the collaborators the routes read from. Fields may be
// nil when that subsystem isn't wired for a given deployment (e.g. no
// generator configured); the corresponding route then answers 503, or
// is not registered at all for Hub, Metrics and Reconciler.
type Deps struct {
	Repo       repository.Repository
	Hub        *streaming.Hub
	Metrics    *metrics.Collector
	Activity   *activity.Recorder
	Gate       *routing.LiveGate
	Generator  *background.Generator
	Reconciler *reconcile.Reconciler
}

// Server is the read/stream HTTP surface.
type Server struct {
	router *mux.Router
	server *http.Server
	deps   Deps
}

func New(cfg Config, deps Deps) *Server {
	router := mux.NewRouter()
	s := &Server{router: router, deps: deps}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/signals", s.handleRecentSignals).Methods(http.MethodGet)
	s.router.HandleFunc("/signals/generator/status", s.handleGeneratorStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/activity/recent", s.handleRecentActivity).Methods(http.MethodGet)
	s.router.HandleFunc("/activity/rejections", s.handleRejectionSummary).Methods(http.MethodGet)

	if s.deps.Hub != nil {
		s.router.HandleFunc("/stream/sse", s.deps.Hub.ServeSSE).Methods(http.MethodGet)
		s.router.HandleFunc("/stream/ws", s.deps.Hub.ServeWebSocket)
	}
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
		s.router.HandleFunc("/metrics/snapshot", s.handleMetricsSnapshot).Methods(http.MethodGet)
	}
	if s.deps.Reconciler != nil {
		s.router.HandleFunc("/reconcile/run", s.handleReconcileRun).Methods(http.MethodPost)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecentSignals(w http.ResponseWriter, r *http.Request) {
	if s.deps.Repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "repository not configured"})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	sigs, err := s.deps.Repo.FindRecent(r.Context(), limit, offset, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sigs)
}

func (s *Server) handleGeneratorStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "generator not configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Generator.Status())
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "activity log not configured"})
		return
	}
	n := 100
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Activity.Log.Recent(n))
}

func (s *Server) handleRejectionSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "activity log not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stage_counts": s.deps.Activity.Rejects.StageCounts(),
		"top_reasons":  s.deps.Activity.Rejects.TopReasons(10),
		"pass_rate":    s.deps.Activity.Rejects.PassFailRate(),
	})
}

func (s *Server) handleMetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

func (s *Server) handleReconcileRun(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Reconciler.RunOnce(r.Context(), time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("httpapi: failed to encode response")
	}
}

// ListenAndServe blocks until ctx is cancelled, then gracefully shuts
// the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("httpapi: listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
