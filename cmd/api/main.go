package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/clinic-backend/internal/api/router"
	"github.com/clinicdesk/clinic-backend/internal/appointments"
	"github.com/clinicdesk/clinic-backend/internal/auth"
	"github.com/clinicdesk/clinic-backend/internal/catalog"
	appconfig "github.com/clinicdesk/clinic-backend/internal/config"
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

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting clinic-backend API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	respond := web.NewResponder(logger, cfg.IsDevelopment())
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	// Stores.
	patientStore := patients.NewStore(pool)
	appointmentStore := appointments.NewStore(pool)
	recordStore := medicalrecords.NewStore(pool)
	invoiceStore := invoices.NewStore(pool)
	staffStore := staff.NewStore(pool)
	settingsStore := catalog.NewSettings(pool)

	// Services.
	patientSvc := patients.NewService(patientStore, logger)
	appointmentSvc := appointments.NewService(appointmentStore, logger)
	recordSvc := medicalrecords.NewService(recordStore, logger)
	invoiceSvc := invoices.NewService(invoiceStore, int64(cfg.ExaminationFee), logger)
	medicineSvc := medicines.NewService(pool, logger)
	staffSvc := staff.NewService(staffStore, tokens, cfg.BcryptCost, logger)
	statsSvc := statistics.NewService(pool)

	// Handlers.
	routerCfg := &router.Config{
		Logger:  logger,
		Respond: respond,

		TokenManager: tokens,
		Accounts:     staffStore,
		Permissions:  staffStore,

		PatientsHandler:       patients.NewHandler(patientSvc, respond),
		AppointmentsHandler:   appointments.NewHandler(appointmentSvc, respond),
		MedicalRecordsHandler: medicalrecords.NewHandler(recordSvc, respond),
		InvoicesHandler:       invoices.NewHandler(invoiceSvc, respond),
		MedicinesHandler:      medicines.NewHandler(medicineSvc, respond),
		DiseaseTypesHandler:   catalog.NewHandler(catalog.DiseaseTypes(pool), respond),
		UsageHandler:          catalog.NewHandler(catalog.UsageInstructions(pool), respond),
		SettingsHandler:       catalog.NewSettingsHandler(settingsStore, respond),
		StaffHandler:          staff.NewHandler(staffSvc, respond),
		StatisticsHandler:     statistics.NewHandler(statsSvc, respond),

		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
