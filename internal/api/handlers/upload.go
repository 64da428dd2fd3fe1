package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/api/middleware"
	"github.com/MacJediWizard/subdash/internal/uploads"
)

// UploadHandler accepts image uploads and serves stored files.
type UploadHandler struct {
	store  uploads.Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(store uploads.Store, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "upload_handler").Logger(),
	}
}

// RegisterRoutes registers the upload route on the given router group.
func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.Upload)
}

// RegisterPublicRoutes serves stored files under /uploads.
func (h *UploadHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/uploads/:name", h.Serve)
}

// Upload stores the multipart "file" field.
// POST /api/v1/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if middleware.BodyTooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error().Err(err).Str("filename", fh.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}
	defer f.Close()

	name := uploads.FileName(fh.Filename, h.now())
	url, err := h.store.Save(c.Request.Context(), name, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	h.logger.Info().Str("name", name).Int64("bytes", fh.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}

// Serve streams a stored file.
// GET /uploads/:name
func (h *UploadHandler) Serve(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) || errors.Is(err, uploads.ErrInvalidName) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.logger.Error().Err(err).Str("name", name).Msg("failed to open upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
