// Package api provides the HTTP API for PlantWatch.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/handler"
	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/sensor"
	"github.com/plantwatch/plantwatch/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Tokens verifies bearer tokens on user routes.
	Tokens middleware.TokenVerifier

	UserService   *user.Service
	SensorService *sensor.Service
	ReportService *report.Service

	// DeviceKey guards the device endpoints. Empty leaves them open.
	DeviceKey string

	// ExposeErrors echoes internal error text in 500 bodies.
	ExposeErrors bool

	// RequireTLS rejects plain HTTP forwarded by the load balancer.
	RequireTLS bool

	DB        handler.Pinger
	Providers *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "plantwatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))            // Structured logging
	r.Use(middleware.ErrorDetail(cfg.ExposeErrors)) // Before recovery so panics honour it
	r.Use(middleware.Recovery(cfg.Logger))          // Panic recovery
	r.Use(chimiddleware.RealIP)                     // Real IP extraction
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, models.NewError(http.StatusMethodNotAllowed, "method not allowed"))
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Providers: cfg.Providers,
	})
	userHandler := handler.NewUserHandler(cfg.UserService, cfg.Logger)
	sensorHandler := handler.NewSensorHandler(cfg.SensorService, cfg.Logger)
	reportHandler := handler.NewReportHandler(cfg.ReportService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Tokens)
	deviceKey := middleware.DeviceKey(cfg.DeviceKey)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)     // 10 req/min
	ingestRateLimit := middleware.RateLimitByIP(middleware.IngestRateLimit) // 120 req/min
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)

	// Ops endpoints
	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
	})

	// Accounts: register and login are public, profile needs a token
	r.Route("/user", func(r chi.Router) {
		r.With(authRateLimit, middleware.RequireJSON).Post("/", userHandler.Register)
		r.With(authRateLimit, middleware.RequireJSON).Put("/", userHandler.Login)
		r.With(authMiddleware, userRateLimit).Get("/", userHandler.GetSelf)
	})

	// Sensor registry (authenticated)
	r.Route("/sensor", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(userRateLimit) // 100 req/min per user
		r.With(middleware.RequireJSON).Post("/", sensorHandler.Create)
		r.Get("/", sensorHandler.List)
		r.Get("/{id}", sensorHandler.Get)
	})

	// Readings: devices post, owners list
	r.Route("/reports", func(r chi.Router) {
		r.With(deviceKey, ingestRateLimit, middleware.RequireJSON).Post("/", reportHandler.Create)
		r.With(authMiddleware, userRateLimit).Get("/", reportHandler.List)
	})

	// Owner push lookup for devices
	r.With(deviceKey, ingestRateLimit, middleware.RequireJSON).Post("/token", sensorHandler.OwnerContact)

	return r
}
