// Package api provides the HTTP server for timecard. It exposes the
// record facade as a small JSON API: CRUD per entity plus the timer
// start/stop operations on tasks.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timecard-io/timecard/internal/app/records"
	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/metrics"
)

// Server is the timecard HTTP API server.
type Server struct {
	facade         *records.Facade
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(facade *records.Facade) *Server {
	return &Server{facade: facade}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(latencyMiddleware)
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Identity bootstrap: no actor required to register one.
	r.Post("/api/v1/users", s.handleCreateUser)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.actorMiddleware)

		r.Get("/users/{id}", s.handleGetUser)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleSearchProjects)
			r.Get("/{id}", s.handleGetProject)
			r.Patch("/{id}", s.handleUpdateProject)
			r.Delete("/{id}", s.handleDeleteProject)
		})

		r.Route("/stages", func(r chi.Router) {
			r.Post("/", s.handleCreateStage)
			r.Get("/", s.handleSearchStages)
			r.Get("/{id}", s.handleGetStage)
			r.Patch("/{id}", s.handleUpdateStage)
			r.Delete("/{id}", s.handleDeleteStage)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.handleCreateTask)
			r.Get("/", s.handleSearchTasks)
			r.Get("/{id}", s.handleGetTask)
			r.Patch("/{id}", s.handleUpdateTask)
			r.Delete("/{id}", s.handleDeleteTask)
			r.Post("/{id}/timer/start", s.handleStartTimer)
			r.Post("/{id}/timer/stop", s.handleStopTimer)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleSearchEntries)
			r.Get("/{id}", s.handleGetEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Actor resolution ───────────────────────────────────────────────────────

type contextKey string

const actorKey contextKey = "actor"

// actorMiddleware resolves the acting user from the X-User-ID header
// and threads it through the request context. Without a resolvable
// identity no record operation runs.
func (s *Server) actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-ID")
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		actor, err := s.facade.GetUser(id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

func actorFrom(r *http.Request) *domain.User {
	actor, _ := r.Context().Value(actorKey).(*domain.User)
	return actor
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps domain errors to HTTP statuses. Every rejected
// precondition is surfaced; nothing is logged-and-ignored.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyRunning), errors.Is(err, domain.ErrNoActiveEntry):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// latencyMiddleware records per-route request latency.
func latencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
