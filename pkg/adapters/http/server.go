// Package http exposes stored checkpoints over a small JSON API.
//
//	GET    /checkpoints               list keys
//	GET    /checkpoints/{key}         decoded record
//	POST   /checkpoints/{key}/resume  continue the run
//	DELETE /checkpoints/{key}         discard
//	GET    /metrics                   Prometheus exposition (optional)
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/passivate/internal/logging"
	"github.com/aretw0/passivate/pkg/checkpoint"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the subset of the passivate engine served over HTTP.
type Engine interface {
	Checkpoints(ctx context.Context) ([]string, error)
	Inspect(ctx context.Context, key string) (*checkpoint.Record, error)
	Continue(ctx context.Context, key string) (*domain.Outcome, error)
	Discard(ctx context.Context, key string) error
}

// Server serves the checkpoint API.
type Server struct {
	Engine   Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts /metrics for the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Route("/checkpoints", func(r chi.Router) {
		r.Get("/", s.List)
		r.Get("/{key}", s.Get)
		r.Delete("/{key}", s.Delete)
		r.Post("/{key}/resume", s.Resume)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListResponse is the body of GET /checkpoints.
type ListResponse struct {
	Keys []string `json:"keys"`
}

// CheckpointResponse is the body of GET /checkpoints/{key}.
type CheckpointResponse struct {
	Key string `json:"key"`
	*checkpoint.Record
}

// ResumeResponse is the body of POST /checkpoints/{key}/resume.
type ResumeResponse struct {
	Key       string         `json:"key"`
	Status    domain.Status  `json:"status"`
	Frames    []domain.Frame `json:"cursor_frames,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// List handles GET /checkpoints.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	keys, err := s.Engine.Checkpoints(r.Context())
	if err != nil {
		s.fail(w, "list", "", err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.write(w, http.StatusOK, ListResponse{Keys: keys})
}

// Get handles GET /checkpoints/{key}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	rec, err := s.Engine.Inspect(r.Context(), key)
	if err != nil {
		s.fail(w, "inspect", key, err)
		return
	}
	s.write(w, http.StatusOK, CheckpointResponse{Key: key, Record: rec})
}

// Delete handles DELETE /checkpoints/{key}.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.Engine.Discard(r.Context(), key); err != nil {
		s.fail(w, "discard", key, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /checkpoints/{key}/resume.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	out, err := s.Engine.Continue(r.Context(), key)
	if err != nil {
		s.fail(w, "resume", key, err)
		return
	}

	resp := ResumeResponse{Key: key, Status: out.Status}
	if cp := out.Checkpoint; cp != nil {
		resp.Frames = cp.Cursor.Frames
		resp.CreatedAt = &cp.CreatedAt
	}
	s.logger.Info("checkpoint resumed", "key", key, "status", out.Status)
	s.write(w, http.StatusOK, resp)
}

func (s *Server) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op, key string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "key", key, "error", err)
	} else {
		s.logger.Warn("request rejected", "op", op, "key", key, "error", err)
	}
	s.write(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCheckpointNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTreeMismatch),
		errors.Is(err, domain.ErrUnsupportedCheckpointVersion):
		return http.StatusConflict
	case errors.Is(err, domain.ErrActionFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
