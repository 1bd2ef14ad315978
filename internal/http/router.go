package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter mounts the gateway callback on / and /ussd next to the health check.
func NewRouter(turns *TurnHandler, health *HealthHandler, requestTimeout time.Duration, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", health.Health)
	r.Post("/", turns.HandleTurn)
	r.Post("/ussd", turns.HandleTurn)

	return r
}
