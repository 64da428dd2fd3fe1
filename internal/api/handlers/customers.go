package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/models"
)

// CustomerService defines the customer operations used by the handler.
type CustomerService interface {
	List(ctx context.Context, f models.CustomerFilter) ([]*models.Customer, error)
	Get(ctx context.Context, id string) (*models.Customer, error)
	Create(ctx context.Context, form models.CustomerForm) (*models.Customer, error)
	Edit(ctx context.Context, id string, form models.CustomerForm) (*models.Customer, error)
	Delete(ctx context.Context, id string) error
	RefreshAllStatuses(ctx context.Context) (int, error)
}

// CustomersHandler handles customer-related HTTP endpoints.
type CustomersHandler struct {
	service CustomerService
	logger  zerolog.Logger
}

// NewCustomersHandler creates a new CustomersHandler.
func NewCustomersHandler(svc CustomerService, logger zerolog.Logger) *CustomersHandler {
	return &CustomersHandler{
		service: svc,
		logger:  logger.With().Str("component", "customers_handler").Logger(),
	}
}

// RegisterRoutes registers customer routes on the given router group.
func (h *CustomersHandler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.GET("", h.List)
		customers.POST("", h.Create)
		customers.POST("/refresh-statuses", h.RefreshStatuses)
		customers.GET("/:id", h.Get)
		customers.PUT("/:id", h.Update)
		customers.DELETE("/:id", h.Delete)
	}
}

// List returns customers matching the query filter.
// GET /api/v1/customers?status=&package_id=&search=&sort=&direction=
func (h *CustomersHandler) List(c *gin.Context) {
	var filter models.CustomerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.Sort != "" && !filter.Sort.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort field"})
		return
	}
	if filter.Direction != "" && filter.Direction != models.SortAsc && filter.Direction != models.SortDesc {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort direction"})
		return
	}

	customers, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "customer", "failed to list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// Get returns a specific customer by ID.
// GET /api/v1/customers/:id
func (h *CustomersHandler) Get(c *gin.Context) {
	customer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "customer", "failed to get customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// Create enrolls a new customer.
// POST /api/v1/customers
func (h *CustomersHandler) Create(c *gin.Context) {
	var form models.CustomerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := h.service.Create(c.Request.Context(), form)
	if err != nil {
		respondError(c, h.logger, err, "customer", "failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// Update edits an existing customer.
// PUT /api/v1/customers/:id
func (h *CustomersHandler) Update(c *gin.Context) {
	var form models.CustomerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := h.service.Edit(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		respondError(c, h.logger, err, "customer", "failed to update customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// Delete removes a customer.
// DELETE /api/v1/customers/:id
func (h *CustomersHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "customer", "failed to delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RefreshStatuses recomputes every customer's status.
// POST /api/v1/customers/refresh-statuses
func (h *CustomersHandler) RefreshStatuses(c *gin.Context) {
	updated, err := h.service.RefreshAllStatuses(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Int("updated", updated).Msg("failed to refresh customer statuses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh customer statuses", "updated": updated})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
