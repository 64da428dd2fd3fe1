package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/api/middleware"
	"github.com/MacJediWizard/subdash/internal/service"
	"github.com/MacJediWizard/subdash/internal/store"
)

// respondError maps a service error to a response. Validation failures and
// missing entities are reported to the client; anything else is logged and
// answered with fallback. A missing referenced entity is named by its own
// kind rather than by entity.
func respondError(c *gin.Context, logger zerolog.Logger, err error, entity, fallback string) {
	var ve *service.ValidationError
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Entity + " not found"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// respondBindError answers a request body that failed to decode.
func respondBindError(c *gin.Context, err error) {
	if middleware.BodyTooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
