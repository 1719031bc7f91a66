package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ParkingLookup returns the upstream facility payload around a coordinate.
type ParkingLookup interface {
	Lookup(ctx context.Context, at domain.Coordinate) (json.RawMessage, error)
}

// Deps are the collaborators behind the HTTP routes. Places and Events may
// be nil: place routes then answer 503 and no lookup events are published.
type Deps struct {
	Parking ParkingLookup
	Places  domain.Places
	Events  domain.EventPublisher
	Ready   sharedobs.ReadinessChecker

	Region        domain.ServiceRegion
	DefaultCenter domain.Coordinate
}

// Server exposes the parking data proxy, place search, health, readiness,
// and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(addr string, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      accessLog(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("POST /api/parkingData", s.handleParkingData)
	mux.HandleFunc("GET /api/places/search", s.handlePlaceSearch)
	mux.HandleFunc("GET /api/places/{id}", s.handlePlaceLookup)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) publish(ctx context.Context, e domain.Event) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, e); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Warn("publish lookup event failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
