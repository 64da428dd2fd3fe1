// Package api provides the HTTP API for the subscription dashboard.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/api/handlers"
	"github.com/MacJediWizard/subdash/internal/api/middleware"
	"github.com/MacJediWizard/subdash/internal/metrics"
	"github.com/MacJediWizard/subdash/internal/uploads"
)

// Config holds configuration for the API router.
type Config struct {
	// AllowedOrigins for CORS. Empty means all origins allowed.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// RateLimitRedis shares rate limit counters across instances (optional).
	RateLimitRedis *redis.Client
	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64
	// MaxUploadBytes bounds multipart uploads.
	MaxUploadBytes int64
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:    []string{},
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
		MaxBodyBytes:      1 << 20,
		MaxUploadBytes:    10 << 20,
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// CustomerService is the customer and dashboard surface the API serves.
type CustomerService interface {
	handlers.CustomerService
	handlers.StatsService
}

// Dependencies are the services the routes delegate to.
type Dependencies struct {
	Customers CustomerService
	Packages  handlers.PackageService
	Uploads   uploads.Store
	Events    handlers.EventStream
	// Metrics and Gatherer are optional; without a Gatherer /metrics is not served.
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	HealthChecks []handlers.HealthCheck
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, deps Dependencies, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	// Global middleware
	r.Engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		r.logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	r.Engine.Use(middleware.RequestID())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.Metrics(deps.Metrics))
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, logger))

	// Health check endpoints
	healthHandler := handlers.NewHealthHandler(logger, deps.HealthChecks...)
	healthHandler.RegisterPublicRoutes(r.Engine)

	// Prometheus metrics endpoint
	if deps.Gatherer != nil {
		metricsHandler := handlers.NewMetricsHandler(deps.Gatherer, deps.Customers, logger)
		metricsHandler.RegisterPublicRoutes(r.Engine)
	}

	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate)
	versionHandler.RegisterPublicRoutes(r.Engine)

	uploadHandler := handlers.NewUploadHandler(deps.Uploads, logger)
	uploadHandler.RegisterPublicRoutes(r.Engine)

	// Rate limiting applies to the API only so health probes and scrapes
	// are never throttled.
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod, cfg.RateLimitRedis)
	if err != nil {
		return nil, err
	}

	apiV1 := r.Engine.Group("/api/v1")
	apiV1.Use(rateLimiter)

	// The websocket feed is registered before the body limit; it has no body.
	handlers.NewEventsHandler(deps.Events).RegisterRoutes(apiV1)

	uploadGroup := apiV1.Group("", middleware.BodyLimit(cfg.MaxUploadBytes, logger))
	uploadHandler.RegisterRoutes(uploadGroup)

	jsonGroup := apiV1.Group("", middleware.BodyLimit(cfg.MaxBodyBytes, logger))

	customersHandler := handlers.NewCustomersHandler(deps.Customers, logger)
	customersHandler.RegisterRoutes(jsonGroup)

	packagesHandler := handlers.NewPackagesHandler(deps.Packages, logger)
	packagesHandler.RegisterRoutes(jsonGroup)

	statsHandler := handlers.NewStatsHandler(deps.Customers, logger)
	statsHandler.RegisterRoutes(jsonGroup)

	r.Engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.logger.Info().Msg("API router initialized")

	return r, nil
}
