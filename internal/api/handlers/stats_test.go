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

	"github.com/MacJediWizard/subdash/internal/models"
)

type mockStatsService struct {
	stats models.DashboardStats
	err   error
	calls int
}

func (m *mockStatsService) Stats(_ context.Context) (models.DashboardStats, error) {
	m.calls++
	return m.stats, m.err
}

func TestGetStats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockStatsService{stats: models.DashboardStats{TotalCustomers: 4, ActiveCustomers: 2, ExpiredCustomers: 1, ExpiringSoon: 1}}
		gin.SetMode(gin.TestMode)
		r := gin.New()
		NewStatsHandler(svc, zerolog.Nop()).RegisterRoutes(r.Group("/api/v1"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/stats", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var got map[string]int
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		want := map[string]int{"totalCustomers": 4, "activeCustomers": 2, "expiredCustomers": 1, "expiringSoon": 1}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("expected %s=%d, got %d", k, v, got[k])
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		svc := &mockStatsService{err: errors.New("timeout")}
		r := gin.New()
		NewStatsHandler(svc, zerolog.Nop()).RegisterRoutes(r.Group("/api/v1"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/stats", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
