package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult represents the result of a health check.
type HealthCheckResult struct {
	Status   HealthStatus `json:"status"`
	Duration string       `json:"duration,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status HealthStatus                  `json:"status"`
	Checks map[string]*HealthCheckResult `json:"checks"`
}

// HealthChecker is a dependency that can report reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a dependency to probe.
type HealthCheck struct {
	Name    string
	Checker HealthChecker
}

// HealthHandler handles health-related HTTP endpoints.
type HealthHandler struct {
	checks []HealthCheck
	logger zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. Checks with a nil Checker
// are skipped.
func NewHealthHandler(logger zerolog.Logger, checks ...HealthCheck) *HealthHandler {
	h := &HealthHandler{logger: logger.With().Str("component", "health_handler").Logger()}
	for _, check := range checks {
		if check.Checker != nil {
			h.checks = append(h.checks, check)
		}
	}
	return h
}

// RegisterPublicRoutes registers health check routes that don't require authentication.
func (h *HealthHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/health", h.Overall)
}

// Overall probes every dependency and returns 503 if any is unreachable.
// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := &HealthResponse{
		Status: HealthStatusHealthy,
		Checks: make(map[string]*HealthCheckResult, len(h.checks)),
	}

	for _, check := range h.checks {
		result := h.run(ctx, check)
		response.Checks[check.Name] = result
		if result.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		}
	}

	if response.Status == HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) run(ctx context.Context, check HealthCheck) *HealthCheckResult {
	start := time.Now()
	err := check.Checker.Ping(ctx)
	result := &HealthCheckResult{
		Status:   HealthStatusHealthy,
		Duration: time.Since(start).String(),
	}

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = check.Name + " ping failed"
		h.logger.Warn().Err(err).Str("check", check.Name).Msg("health check failed")
	}
	return result
}
