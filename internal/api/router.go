package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/dashboard"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/notify"
	"github.com/careslot/careslot/internal/practitioner"
)

type RouterConfig struct {
	Booking       *booking.Service
	Ledger        ledger.Ledger
	Directory     practitioner.Repository
	Notifier      *notify.Notifier
	Dashboard     *dashboard.Aggregator
	Authenticator auth.TokenAuthenticator
	AdminVerifier auth.AdminCredentialVerifier
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Log           zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public surface: directory browsing and the admin login.
	r.Post("/admin/login", adminLoginHandler(cfg.AdminVerifier, cfg.Authenticator))
	r.Get("/practitioners", listPractitionersHandler(cfg.Directory))
	r.Get("/practitioners/{id}/slots", practitionerSlotsHandler(cfg.Booking))

	// Everything else requires a verified caller.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Authenticator))

		r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
		r.Get("/appointments", listAppointmentsHandler(cfg.Ledger))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Booking))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Booking))
		r.Post("/appointments/{id}/pay", payAppointmentHandler(cfg.Booking))

		r.Post("/practitioners/{id}/availability", setAvailabilityHandler(cfg.Booking))
		r.Post("/practitioners/{id}/follow", followPractitionerHandler(cfg.Notifier))

		// Same handler as the public list; with admin claims in context
		// it includes contact details.
		r.Get("/admin/practitioners", listPractitionersHandler(cfg.Directory))

		r.Get("/dashboard/admin", adminDashboardHandler(cfg.Dashboard))
		r.Get("/dashboard/practitioner", practitionerDashboardHandler(cfg.Dashboard))
	})

	return r
}
