package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/config"
	"github.com/stluc/hms/internal/domain/admin"
	"github.com/stluc/hms/internal/domain/billing"
	"github.com/stluc/hms/internal/domain/consultation"
	"github.com/stluc/hms/internal/domain/diagnostics"
	"github.com/stluc/hms/internal/domain/emergency"
	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/domain/medication"
	"github.com/stluc/hms/internal/domain/scheduling"
	"github.com/stluc/hms/internal/domain/settings"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/internal/platform/middleware"
	"github.com/stluc/hms/internal/platform/receipt"
	"github.com/stluc/hms/internal/platform/sandbox"
	"github.com/stluc/hms/internal/platform/telemetry"
	"github.com/stluc/hms/internal/platform/websocket"
	"github.com/stluc/hms/internal/store"
)

// newServer wires the store, the domain services and their routes.
func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*echo.Echo, error) {
	st := store.New()
	docs := receipt.NewGenerator()

	hub := websocket.NewHub()
	hub.SetLogger(logger)

	var metrics *telemetry.Metrics
	if cfg.MetricsEnabled {
		metrics = telemetry.New()
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.HeaderDevUser, auth.HeaderDevName, auth.HeaderDevRole},
	}))
	if metrics != nil {
		e.Use(metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	// Auth middleware applies to the API only so that probes stay open.
	apiV1 := e.Group("/api/v1")
	switch cfg.ResolvedAuthMode() {
	case "development":
		apiV1.Use(auth.DevAuthMiddleware())
	case "jwt":
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.ResolvedAuthMode())
	}
	apiV1.Use(middleware.Audit(logger))

	// Desk queue events
	websocket.NewWebSocketHandler(hub, cfg.CORSOrigins).RegisterRoutes(apiV1)

	// Settings come first: the configured hospital and emergency prices
	// replace the defaults before any record is billed.
	settingsSvc := settings.NewService(st)
	settingsSvc.SetLogger(logger)
	if _, err := settingsSvc.SetEmergencyPrices(ctx, store.EmergencyPrices{
		Consultation: cfg.EmergencyConsultationPrice,
		Analysis:     cfg.EmergencyAnalysisPrice,
	}); err != nil {
		return nil, fmt.Errorf("emergency prices: %w", err)
	}
	hospital := store.DefaultHospital
	if name := strings.TrimSpace(cfg.HospitalName); name != "" {
		hospital.Name = name
	}
	if cfg.HospitalAddress != "" {
		hospital.Address = cfg.HospitalAddress
	}
	if cfg.HospitalPhone != "" {
		hospital.Phone = cfg.HospitalPhone
	}
	if _, err := settingsSvc.SetHospital(ctx, hospital); err != nil {
		return nil, fmt.Errorf("hospital profile: %w", err)
	}
	settings.NewHandler(settingsSvc).RegisterRoutes(apiV1)

	if cfg.DemoData {
		result, err := sandbox.Seed(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("demo data: %w", err)
		}
		logger.Info().Int("patients", result.Patients).Int("employees", result.Employees).Msg("demo data loaded")
	}
	sandboxGroup := apiV1.Group("/admin/sandbox", auth.RequireRole(auth.RoleAdmin))
	sandbox.NewSeedHandler(st).RegisterRoutes(sandboxGroup)

	// Identity domain
	identitySvc := identity.NewService(st, docs)
	identitySvc.SetLogger(logger)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	// Billing domain
	billingSvc := billing.NewService(st, docs)
	billingSvc.SetLogger(logger)
	billingSvc.SetEvents(hub)
	billingSvc.SetMetrics(metrics)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Consultation domain
	consultationSvc := consultation.NewService(st)
	consultationSvc.SetLogger(logger)
	consultationSvc.SetEvents(hub)
	consultationSvc.SetMetrics(metrics)
	consultation.NewHandler(consultationSvc).RegisterRoutes(apiV1)

	// Laboratory domain
	diagnosticsSvc := diagnostics.NewService(st)
	diagnosticsSvc.SetLogger(logger)
	diagnosticsSvc.SetEvents(hub)
	diagnostics.NewHandler(diagnosticsSvc).RegisterRoutes(apiV1)

	// Pharmacy domain
	medicationSvc := medication.NewService(st, docs)
	medicationSvc.SetLogger(logger)
	medicationSvc.SetEvents(hub)
	medicationSvc.SetMetrics(metrics)
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)
	if _, err := medicationSvc.Stock(ctx); err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}

	// Emergency domain
	emergencySvc := emergency.NewService(st, docs)
	emergencySvc.SetLogger(logger)
	emergencySvc.SetEvents(hub)
	emergencySvc.SetMetrics(metrics)
	emergency.NewHandler(emergencySvc).RegisterRoutes(apiV1)

	// Scheduling domain
	schedulingSvc := scheduling.NewService(st)
	schedulingSvc.SetLogger(logger)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	// Administration domain
	adminSvc := admin.NewService(st)
	adminSvc.SetLogger(logger)
	admin.NewHandler(adminSvc).RegisterRoutes(apiV1)

	return e, nil
}
