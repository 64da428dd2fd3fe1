package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MetricsHandler serves Prometheus metrics.
type MetricsHandler struct {
	handler gin.HandlerFunc
	stats   StatsService
	logger  zerolog.Logger
}

// NewMetricsHandler creates a new MetricsHandler. When stats is non-nil the
// customer gauges are refreshed on every scrape.
func NewMetricsHandler(gatherer prometheus.Gatherer, stats StatsService, logger zerolog.Logger) *MetricsHandler {
	return &MetricsHandler{
		handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		stats:   stats,
		logger:  logger.With().Str("component", "metrics_handler").Logger(),
	}
}

// RegisterPublicRoutes registers metrics routes that don't require authentication.
func (h *MetricsHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/metrics", h.Metrics)
}

// Metrics returns metrics in Prometheus exposition format.
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	if h.stats != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if _, err := h.stats.Stats(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("failed to refresh customer gauges")
		}
	}
	h.handler(c)
}
