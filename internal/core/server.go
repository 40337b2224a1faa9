// Package core provides the read API chassis for cropsense: a chi router
// with request ID, logging, and panic recovery middleware in front of the
// location-scoped inference read endpoints.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

// PatternReader lists stored weather patterns for a location.
type PatternReader interface {
	ListByLocation(ctx context.Context, location string, since time.Time, limit int) ([]types.WeatherPattern, error)
}

// PredictionReader lists stored predictions for a location.
type PredictionReader interface {
	ListByLocation(ctx context.Context, location string, from time.Time, limit int) ([]types.AgroClimaticPrediction, error)
}

// RecommendationStore lists recommendations and owns the read flag.
type RecommendationStore interface {
	ListByLocation(ctx context.Context, location string, includeRead bool, limit int) ([]types.Recommendation, error)
	MarkRead(ctx context.Context, id string, isRead bool) error
}

// Server encapsulates the API dependencies, allowing injection during
// testing and distinct configuration per environment.
type Server struct {
	Config          *config.Config
	Patterns        PatternReader
	Predictions     PredictionReader
	Recommendations RecommendationStore
	Logger          *slog.Logger

	router *chi.Mux
}

// NewServer initializes dependencies and mounts the routes. It fails fast
// on missing critical dependencies.
func NewServer(
	cfg *config.Config,
	patterns PatternReader,
	predictions PredictionReader,
	recommendations RecommendationStore,
	logger *slog.Logger,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:          cfg,
		Patterns:        patterns,
		Predictions:     predictions,
		Recommendations: recommendations,
		Logger:          logger,
		router:          chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountRoutes() {
	s.router.Use(Recoverer(s.Logger))
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/locations/{location}", func(r chi.Router) {
			r.Get("/patterns", s.handleListPatterns)
			r.Get("/predictions", s.handleListPredictions)
			r.Get("/recommendations", s.handleListRecommendations)
		})

		r.Patch("/recommendations/{id}/read", s.handleMarkRead)
	})
}
