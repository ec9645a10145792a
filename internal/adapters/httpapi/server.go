// Package httpapi serves the customer chat widget API, the staff hub API
// and the ops endpoints over chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
	"github.com/example/resolvd/internal/version"
)

const maxBodyBytes = 64 << 10

// HTTPMetrics is what the server needs from the metrics registry.
type HTTPMetrics interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
	Handler() http.Handler
}

// Options tunes the router.
type Options struct {
	ServiceName string
	// RateLimiter guards the widget routes; nil disables limiting.
	RateLimiter *RateLimiter
}

// Server holds the services behind the HTTP surface.
type Server struct {
	resolution primary.ResolutionService
	cases      primary.CaseService
	verifier   secondary.IdentityVerifier
	metrics    HTTPMetrics
	opts       Options
}

// NewServer creates a Server.
func NewServer(
	resolution primary.ResolutionService,
	cases primary.CaseService,
	verifier secondary.IdentityVerifier,
	metrics HTTPMetrics,
	opts Options,
) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "resolvd"
	}
	return &Server{
		resolution: resolution,
		cases:      cases,
		verifier:   verifier,
		metrics:    metrics,
		opts:       opts,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(otelHTTP(s.opts.ServiceName))
	r.Use(requestLogger(s.metrics))
	r.Use(recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/chat", func(r chi.Router) {
		if s.opts.RateLimiter != nil {
			r.Use(s.opts.RateLimiter.Middleware)
		}
		r.Use(customerActor)
		r.Get("/intents", s.handleIntents)
		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/identify", s.handleIdentify)
			r.Post("/order", s.handleSelectOrder)
			r.Post("/items", s.handleSelectItems)
			r.Post("/intent", s.handleSelectIntent)
			r.Post("/accept", s.handleAccept)
			r.Post("/decline", s.handleDecline)
			r.Post("/retry", s.handleRetryEmission)
		})
	})

	r.Route("/api/hub", func(r chi.Router) {
		r.Use(requireStaff(s.verifier))
		r.Get("/stats", s.handleStats)
		r.Get("/cases", s.handleListCases)
		r.Post("/cases", s.handleCreateCase)
		r.Route("/cases/{caseID}", func(r chi.Router) {
			r.Get("/", s.handleGetCase)
			r.Patch("/status", s.handleUpdateStatus)
			r.Patch("/assignee", s.handleAssign)
			r.Get("/comments", s.handleListComments)
			r.Post("/comments", s.handleAddComment)
			r.Get("/timeline", s.handleTimeline)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.opts.ServiceName,
		Version: version.String(),
	})
}

var errEmptyBody = errors.New("request body is required")

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
