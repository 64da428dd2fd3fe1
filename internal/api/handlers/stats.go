package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/models"
)

// StatsService computes dashboard counts.
type StatsService interface {
	Stats(ctx context.Context) (models.DashboardStats, error)
}

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	service StatsService
	logger  zerolog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: svc,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// RegisterRoutes registers stats routes on the given router group.
func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.Get)
}

// Get returns customer counts by status.
// GET /api/v1/stats
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "stats", "failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
