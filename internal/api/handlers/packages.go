package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/models"
)

// PackageService defines the package operations used by the handler.
type PackageService interface {
	List(ctx context.Context) ([]*models.Package, error)
	Get(ctx context.Context, id string) (*models.Package, error)
	Create(ctx context.Context, form models.PackageForm) (*models.Package, error)
	Update(ctx context.Context, id string, upd models.PackageUpdate) (*models.Package, error)
	Delete(ctx context.Context, id string) error
}

// PackagesHandler handles package-related HTTP endpoints.
type PackagesHandler struct {
	service PackageService
	logger  zerolog.Logger
}

// NewPackagesHandler creates a new PackagesHandler.
func NewPackagesHandler(svc PackageService, logger zerolog.Logger) *PackagesHandler {
	return &PackagesHandler{
		service: svc,
		logger:  logger.With().Str("component", "packages_handler").Logger(),
	}
}

// RegisterRoutes registers package routes on the given router group.
func (h *PackagesHandler) RegisterRoutes(r *gin.RouterGroup) {
	packages := r.Group("/packages")
	{
		packages.GET("", h.List)
		packages.POST("", h.Create)
		packages.GET("/:id", h.Get)
		packages.PUT("/:id", h.Update)
		packages.DELETE("/:id", h.Delete)
	}
}

// List returns all packages ordered by name.
// GET /api/v1/packages
func (h *PackagesHandler) List(c *gin.Context) {
	packages, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "package", "failed to list packages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// Get returns a specific package by ID.
// GET /api/v1/packages/:id
func (h *PackagesHandler) Get(c *gin.Context) {
	pkg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "package", "failed to get package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// Create adds a package.
// POST /api/v1/packages
func (h *PackagesHandler) Create(c *gin.Context) {
	var form models.PackageForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}

	pkg, err := h.service.Create(c.Request.Context(), form)
	if err != nil {
		respondError(c, h.logger, err, "package", "failed to create package")
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// Update changes the fields present in the request body.
// PUT /api/v1/packages/:id
func (h *PackagesHandler) Update(c *gin.Context) {
	var upd models.PackageUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondBindError(c, err)
		return
	}

	pkg, err := h.service.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.logger, err, "package", "failed to update package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// Delete removes a package. Customers enrolled in it are left unchanged.
// DELETE /api/v1/packages/:id
func (h *PackagesHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "package", "failed to delete package")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
