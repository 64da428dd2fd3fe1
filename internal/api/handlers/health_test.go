package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

func TestHealthOverall(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		status int
		want   HealthStatus
	}{
		{"all healthy", []HealthCheck{{"store", &mockChecker{}}, {"cache", &mockChecker{}}}, http.StatusOK, HealthStatusHealthy},
		{"store down", []HealthCheck{{"store", &mockChecker{err: errors.New("connection refused")}}}, http.StatusServiceUnavailable, HealthStatusUnhealthy},
		{"nil checker skipped", []HealthCheck{{"store", &mockChecker{}}, {"cache", nil}}, http.StatusOK, HealthStatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			NewHealthHandler(zerolog.Nop(), tt.checks...).RegisterPublicRoutes(r)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/health", nil)
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var resp HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if resp.Status != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, resp.Status)
			}
			if _, ok := resp.Checks["cache"]; ok && tt.name == "nil checker skipped" {
				t.Fatal("expected nil checker to be skipped")
			}
		})
	}
}
