package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are answered 413 up front; bodies of unknown length fail
// with *http.MaxBytesError once a handler reads past the cap (see
// BodyTooLarge).
func BodyLimit(maxBytes int64, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "body_limit").Logger()

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			log.Warn().
				Str("request_id", GetRequestID(c)).
				Str("path", c.Request.URL.Path).
				Int64("content_length", c.Request.ContentLength).
				Int64("limit", maxBytes).
				Msg("request body rejected")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
				"limit": maxBytes,
			})
			return
		}
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// BodyTooLarge reports whether err came from reading past a BodyLimit cap.
func BodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
