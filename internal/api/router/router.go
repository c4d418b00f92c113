package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/serenityspa/bookingflow/internal/http/handlers"
	httpmiddleware "github.com/serenityspa/bookingflow/internal/http/middleware"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WizardHandler      *handlers.WizardHandler
	ReturnsHandler     *handlers.ReturnsHandler
	AdminBookings      *handlers.AdminBookingsHandler
	HealthHandler      *handlers.HealthHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.WizardHandler != nil {
			public.Route("/api/wizard", func(r chi.Router) {
				r.Post("/", cfg.WizardHandler.Start)
				r.Route("/{wizardID}", func(r chi.Router) {
					r.Get("/", cfg.WizardHandler.Get)
					r.Delete("/", cfg.WizardHandler.Close)
					r.Get("/availability", cfg.WizardHandler.Availability)
					r.Post("/service", cfg.WizardHandler.SelectService)
					r.Post("/datetime", cfg.WizardHandler.SelectDateTime)
					r.Post("/contact", cfg.WizardHandler.SetContact)
					r.Post("/payment-method", cfg.WizardHandler.SelectPayment)
					r.Post("/confirm", cfg.WizardHandler.Confirm)
					r.Post("/retry", cfg.WizardHandler.Retry)
				})
			})
		}

		// The payment provider redirects the client here after checkout.
		if cfg.ReturnsHandler != nil {
			public.Route("/payments/return", func(r chi.Router) {
				r.Get("/success", cfg.ReturnsHandler.Success)
				r.Get("/cancel", cfg.ReturnsHandler.Cancel)
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminBookings != nil && cfg.AdminAuthSecret != "" {
		r.Route("/api/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			admin.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.AdminBookings.CreateBooking)
				r.Post("/batch-delete", cfg.AdminBookings.BatchDelete)
				r.Delete("/{bookingID}", cfg.AdminBookings.Delete)
			})

			admin.Route("/editor", func(r chi.Router) {
				r.Post("/", cfg.AdminBookings.OpenEditor)
				r.Route("/{bookingID}", func(r chi.Router) {
					r.Delete("/", cfg.AdminBookings.CloseEditor)
					r.Post("/payment", cfg.AdminBookings.SetPayment)
					r.Post("/confirm", cfg.AdminBookings.Confirm)
					r.Post("/retry", cfg.AdminBookings.Retry)
				})
			})
		})
	}

	return r
}
