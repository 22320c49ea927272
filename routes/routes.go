package routes

import (
	"log/slog"
	"net/http"

	_ "github.com/Dosada05/tournament-finder/docs"
	"github.com/Dosada05/tournament-finder/handlers"
	"github.com/Dosada05/tournament-finder/metrics"
	"github.com/Dosada05/tournament-finder/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Location    *handlers.LocationHandler
	File        *handlers.FileHandler
	// Webhook is nil when no signing secret is configured.
	Webhook *handlers.WebhookHandler
	Health  *handlers.HealthHandler
}

type Options struct {
	Auth           *middleware.Authenticator
	Logger         *slog.Logger
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	AllowedOrigins []string
	// Media serves uploads under /media when objects are kept in process.
	Media http.Handler
}

func SetupRoutes(router *chi.Mux, opts Options, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.Instrument(opts.Logger, opts.Metrics))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(opts.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: len(opts.AllowedOrigins) > 0,
		MaxAge:           300,
	}))

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/healthz", h.Health.Health)
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler)
	}
	if opts.Media != nil {
		router.Handle("/media/*", http.StripPrefix("/media", opts.Media))
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	auth := opts.Auth

	router.Route("/api", func(r chi.Router) {
		r.Get("/location", h.Location.Locate)

		if h.Webhook != nil {
			r.Post("/webhooks/users", h.Webhook.Users)
		}

		r.With(auth.Authenticate).Post("/files", h.File.Upload)

		r.Route("/tournaments", func(r chi.Router) {
			r.With(auth.OptionalAuthenticate).Get("/", h.Tournament.ListHandler)
			r.With(auth.Authenticate).Get("/my", h.Tournament.MyHandler)
			r.With(auth.OptionalAuthenticate).Get("/{id}", h.Tournament.GetByIDHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)

				r.Post("/", h.Tournament.CreateHandler)
				r.Put("/{id}", h.Tournament.UpdateHandler)
				r.Delete("/{id}", h.Tournament.DeleteHandler)
				r.Patch("/{id}/status", h.Tournament.UpdateStatusHandler)
				r.Patch("/{id}/user", h.Participant.RemoveParticipant)
				r.Post("/{id}/register", h.Participant.Register)
				r.Delete("/{id}/leave", h.Participant.Leave)
			})
		})
	})
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
