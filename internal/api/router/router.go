// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/filipinovation/clinic-booking/internal/http/handlers"
	httpmiddleware "github.com/filipinovation/clinic-booking/internal/http/middleware"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *handlers.AvailabilityHandler
	BookingHandler      *handlers.BookingHandler
	PatientHandler      *handlers.PatientHandler
	NearestHandler      *handlers.NearestHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Per-IP rate limiting; disabled when RateLimitPerSecond <= 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AvailabilityHandler != nil {
		r.Get("/availability/{selector}/{date}", cfg.AvailabilityHandler.Get)
	}
	if cfg.BookingHandler != nil {
		r.Post("/appointments", cfg.BookingHandler.Create)
		// Legacy query-parameter form.
		r.Get("/appointments/book", cfg.BookingHandler.CreateFromQuery)
	}
	if cfg.PatientHandler != nil {
		r.Get("/patients/{patientID}", cfg.PatientHandler.Get)
	}
	if cfg.NearestHandler != nil {
		r.Get("/doctors/nearest", cfg.NearestHandler.Get)
	}

	return r
}
