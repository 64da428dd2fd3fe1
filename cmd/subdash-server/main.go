// Package main is the entrypoint for the subdash server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/activity"
	"github.com/MacJediWizard/subdash/internal/api"
	"github.com/MacJediWizard/subdash/internal/api/handlers"
	"github.com/MacJediWizard/subdash/internal/bootstrap"
	"github.com/MacJediWizard/subdash/internal/config"
	"github.com/MacJediWizard/subdash/internal/maintenance"
	"github.com/MacJediWizard/subdash/internal/metrics"
	"github.com/MacJediWizard/subdash/internal/service"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadDotEnv(); err != nil {
		// The logger is not configured yet.
		os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		return 1
	}

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting subdash server")

	// Load configuration
	cfg := config.LoadServerConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := config.LoadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Failed to load config file")
			return 1
		}
		fc.Apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open persistence
	stores, err := bootstrap.OpenStores(ctx, cfg, true, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open store")
		return 1
	}
	defer stores.Close()

	files, err := bootstrap.OpenUploads(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open upload storage")
		return 1
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}

	// Change feed
	feed := activity.NewFeed(stores.Store, activity.DefaultConfig(), logger)
	sink, err := bootstrap.OpenKafkaSink(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect Kafka sink")
		return 1
	}
	if sink != nil {
		defer sink.Close()
		feed.AddSink(sink)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka change sink enabled")
	}
	feed.Start()
	defer feed.Stop()

	packages := service.NewPackageService(stores.Store, feed, m, logger)
	customers := service.NewCustomerService(stores.Store, feed, m, logger)

	if cfg.SeedDefaultPackages {
		if n, err := packages.SeedDefaults(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to seed default packages")
		} else if n > 0 {
			logger.Info().Int("count", n).Msg("Seeded default packages")
		}
	}

	// Build API router
	routerCfg := api.DefaultConfig()
	routerCfg.AllowedOrigins = cfg.CORSOrigins
	routerCfg.RateLimitRequests = cfg.RateLimitRequests
	routerCfg.RateLimitPeriod = cfg.RateLimitPeriod
	routerCfg.MaxUploadBytes = cfg.MaxUploadBytes
	routerCfg.Version = Version
	routerCfg.Commit = Commit
	routerCfg.BuildDate = BuildDate

	healthChecks := []handlers.HealthCheck{{Name: "store", Checker: stores.Store}}
	if stores.Redis != nil {
		routerCfg.RateLimitRedis = stores.Redis.Client()
		healthChecks = append(healthChecks, handlers.HealthCheck{Name: "cache", Checker: stores.Redis})
	}

	router, err := api.NewRouter(routerCfg, api.Dependencies{
		Customers:    customers,
		Packages:     packages,
		Uploads:      files,
		Events:       feed,
		Metrics:      m,
		Gatherer:     registry,
		HealthChecks: healthChecks,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Websocket connections manage their own write deadlines.
		WriteTimeout: 0,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start status refresh scheduler
	refresher := maintenance.NewStatusRefreshScheduler(customers, cfg.StatusRefreshSchedule, m, logger)
	if err := refresher.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start status refresh scheduler")
		return 1
	}
	defer func() { <-refresher.Stop().Done() }()

	// Bring stored statuses up to date after downtime.
	go refresher.RunNow()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("HTTP server error")
		return 1
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
