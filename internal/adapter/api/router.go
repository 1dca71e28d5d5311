package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/logging-api/internal/adapter/api/handler"
	"github.com/user/logging-api/internal/adapter/api/middleware"
)

// NewRouter creates and configures the main HTTP router.
func NewRouter(
	logger *slog.Logger,
	jwtSecret string,
	logs *handler.LogsHandler,
	auth *handler.AuthHandler,
	tokenLimiter *middleware.IPRateLimiter,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Correlation)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", logs.Ping)
		r.Post("/", logs.Submit)
		r.Get("/stats", logs.Stats)
		r.Get("/health", logs.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(jwtSecret, logger))
			r.Get("/recent", logs.Recent)
			r.Get("/search", logs.Search)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(tokenLimiter.Middleware).Post("/token", auth.Token)
	})

	return r
}
