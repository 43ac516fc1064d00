// Package api exposes the threat store over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/store"
)

// Server routes HTTP requests to the threat store.
type Server struct {
	router   *chi.Mux
	store    *store.Store
	feed     http.Handler
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer builds the router. feed and gatherer may be nil, which disables
// /ws and /metrics respectively.
func NewServer(s *store.Store, feed http.Handler, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	srv := &Server{
		router:   chi.NewRouter(),
		store:    s,
		feed:     feed,
		gatherer: gatherer,
		logger:   logger.Named("api"),
	}
	srv.routes()
	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if s.feed != nil {
		// Hijacked connection, so no access log wrapper
		r.Handle("/ws", s.feed)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.accessLog)

		r.Get("/state", s.getState)
		r.Get("/threats/active", s.getActiveThreats)
		r.Get("/logs", s.getLogs)
		r.Get("/stats", s.getStats)
		r.Get("/map", s.getMap)
		r.Get("/map/points", s.getMapPoints)
		r.Get("/export", s.exportLogs)

		r.Post("/simulation/toggle", s.toggleSimulation)
		r.Post("/simulation/reset", s.resetSimulation)

		r.Get("/filters", s.getFilters)
		r.Patch("/filters", s.setFilters)
		r.Delete("/filters", s.clearFilters)
	})
}

// accessLog logs each request with zap.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
