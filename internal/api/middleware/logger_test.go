package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fail"})
	})
	r.GET("/bad-request", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/test?q=alice", http.StatusOK, "info"},
		{"/bad-request", http.StatusBadRequest, "warn"},
		{"/error", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", tt.path, nil)
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level %q, got %v", tt.level, entry["level"])
			}
			if entry["component"] != "http" {
				t.Errorf("expected component http, got %v", entry["component"])
			}
			if entry["request_id"] != w.Header().Get(RequestIDHeader) {
				t.Errorf("expected logged request id to match response header")
			}
			if !strings.HasPrefix(tt.path, entry["path"].(string)) {
				t.Errorf("unexpected path %v", entry["path"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		r.ServeHTTP(w, req)

		id := w.Header().Get(RequestIDHeader)
		if len(id) != 36 {
			t.Fatalf("expected a uuid request id, got %q", id)
		}
		if w.Body.String() != id {
			t.Errorf("expected handler to see %q, got %q", id, w.Body.String())
		}
	})

	t.Run("propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "upstream-123")
		r.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "upstream-123" {
			t.Errorf("expected propagated id, got %q", got)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
		r.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
			t.Errorf("expected replacement uuid, got %q", got)
		}
	})
}
