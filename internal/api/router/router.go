package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicdesk/clinic-backend/internal/appointments"
	"github.com/clinicdesk/clinic-backend/internal/auth"
	"github.com/clinicdesk/clinic-backend/internal/catalog"
	httpmiddleware "github.com/clinicdesk/clinic-backend/internal/http/middleware"
	"github.com/clinicdesk/clinic-backend/internal/invoices"
	"github.com/clinicdesk/clinic-backend/internal/medicalrecords"
	"github.com/clinicdesk/clinic-backend/internal/medicines"
	"github.com/clinicdesk/clinic-backend/internal/observability/metrics"
	"github.com/clinicdesk/clinic-backend/internal/patients"
	"github.com/clinicdesk/clinic-backend/internal/staff"
	"github.com/clinicdesk/clinic-backend/internal/statistics"
	"github.com/clinicdesk/clinic-backend/internal/web"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger  *logging.Logger
	Respond *web.Responder

	TokenManager *auth.Manager
	Accounts     auth.AccountChecker
	Permissions  auth.PermissionChecker

	PatientsHandler       *patients.Handler
	AppointmentsHandler   *appointments.Handler
	MedicalRecordsHandler *medicalrecords.Handler
	InvoicesHandler       *invoices.Handler
	MedicinesHandler      *medicines.Handler
	DiseaseTypesHandler   *catalog.Handler
	UsageHandler          *catalog.Handler
	SettingsHandler       *catalog.SettingsHandler
	StaffHandler          *staff.Handler
	StatisticsHandler     *statistics.Handler

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates the Chi router with all routes configured.
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
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}

	// Public endpoints.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Post("/api/auth/login", cfg.StaffHandler.Login)

	permit := func(permission string) func(http.Handler) http.Handler {
		return auth.Permit(cfg.Permissions, permission, cfg.Respond)
	}
	permitCRUD := func(entity string) func(http.Handler) http.Handler {
		return auth.PermitCRUD(cfg.Permissions, entity, cfg.Respond)
	}

	// Everything else under /api requires a valid session.
	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Require(cfg.TokenManager, cfg.Accounts, cfg.Respond))

		api.Mount("/auth", cfg.StaffHandler.AuthRoutes())

		api.With(permitCRUD("patient")).Mount("/patients", cfg.PatientsHandler.Routes())
		api.Mount("/appointments", cfg.AppointmentsHandler.Routes())
		api.With(permitCRUD("medical_record")).Mount("/medical-records", cfg.MedicalRecordsHandler.Routes())
		api.With(permitCRUD("medical_record")).Mount("/prescriptions", cfg.MedicalRecordsHandler.PrescriptionRoutes())
		api.Mount("/invoices", cfg.InvoicesHandler.Routes())
		api.Mount("/medicines", cfg.MedicinesHandler.Routes(permit("manage_medicines")))
		api.Mount("/disease-types", cfg.DiseaseTypesHandler.Routes())
		api.Mount("/usage-instructions", cfg.UsageHandler.Routes())
		api.Mount("/settings", cfg.SettingsHandler.Routes())
		api.With(permit("manage_staff")).Mount("/staff", cfg.StaffHandler.Routes())
		api.Mount("/statistics", cfg.StatisticsHandler.Routes())
	})

	return r
}
