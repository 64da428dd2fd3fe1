package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/api/middleware"
	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/service"
	"github.com/MacJediWizard/subdash/internal/store"
)

type mockCustomerService struct {
	customers  map[string]*models.Customer
	lastFilter models.CustomerFilter
	lastForm   models.CustomerForm
	listErr    error
	createErr  error
	editErr    error
	deleteErr  error
	refreshed  int
	refreshErr error
}

func (m *mockCustomerService) List(_ context.Context, f models.CustomerFilter) ([]*models.Customer, error) {
	m.lastFilter = f
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*models.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomerService) Get(_ context.Context, id string) (*models.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockCustomerService) Create(_ context.Context, form models.CustomerForm) (*models.Customer, error) {
	m.lastForm = form
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Customer{ID: "new-id", Name: form.Name, PackageID: form.PackageID, Status: models.CustomerStatusActive}, nil
}

func (m *mockCustomerService) Edit(_ context.Context, id string, form models.CustomerForm) (*models.Customer, error) {
	m.lastForm = form
	if m.editErr != nil {
		return nil, m.editErr
	}
	c, ok := m.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Name = form.Name
	return c, nil
}

func (m *mockCustomerService) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.customers[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerService) RefreshAllStatuses(_ context.Context) (int, error) {
	return m.refreshed, m.refreshErr
}

func setupCustomerTestRouter(svc CustomerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewCustomersHandler(svc, zerolog.Nop())
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func newCustomerFixture() *mockCustomerService {
	return &mockCustomerService{
		customers: map[string]*models.Customer{
			"c1": {ID: "c1", Name: "Alice", PackageID: "p1", Status: models.CustomerStatusActive},
		},
	}
}

func TestListCustomers(t *testing.T) {
	t.Run("success with filter", func(t *testing.T) {
		svc := newCustomerFixture()
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers?status=active&package_id=p1&search=ali&sort=endDate&direction=desc", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp struct {
			Customers []*models.Customer `json:"customers"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if len(resp.Customers) != 1 || resp.Customers[0].Name != "Alice" {
			t.Fatalf("unexpected customers: %+v", resp.Customers)
		}

		want := models.CustomerFilter{Status: "active", PackageID: "p1", Search: "ali", Sort: models.SortByEndDate, Direction: models.SortDesc}
		if svc.lastFilter != want {
			t.Fatalf("expected filter %+v, got %+v", want, svc.lastFilter)
		}
	})

	t.Run("invalid sort", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers?sort=createdAt", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers?sort=name&direction=up", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.listErr = errors.New("connection refused")
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("connection refused")) {
			t.Fatal("expected internal error details to be hidden")
		}
	})
}

func TestGetCustomer(t *testing.T) {
	r := setupCustomerTestRouter(newCustomerFixture())

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers/c1", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/customers/missing", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestCreateCustomer(t *testing.T) {
	form := models.CustomerForm{Name: "Bob", PackageID: "p1", StartDate: "2024-01-01"}

	t.Run("success", func(t *testing.T) {
		svc := newCustomerFixture()
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		var got models.Customer
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if got.ID != "new-id" || got.Name != "Bob" {
			t.Fatalf("unexpected customer: %+v", got)
		}
		if svc.lastForm != form {
			t.Fatalf("expected form %+v, got %+v", form, svc.lastForm)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", jsonBody(t, map[string]string{"name": "Bob"}))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.createErr = &service.ValidationError{Field: "packageId", Message: "is required"}
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp["field"] != "packageId" {
			t.Fatalf("expected field packageId, got %q", resp["field"])
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.createErr = &service.NotFoundError{Entity: "package", ID: "missing"}
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp["error"] != "package not found" {
			t.Fatalf("expected package not found, got %q", resp["error"])
		}
	})

	t.Run("persistence error", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.createErr = errors.New("disk full")
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestUpdateCustomer(t *testing.T) {
	form := models.CustomerForm{Name: "Alicia", PackageID: "p1", StartDate: "2024-01-01"}

	t.Run("success", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/customers/c1", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var got models.Customer
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if got.Name != "Alicia" {
			t.Fatalf("expected updated name, got %q", got.Name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/customers/missing", jsonBody(t, form))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newCustomerFixture()
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/customers/c1", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if w.Body.String() != `{"success":true}` {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
		if _, ok := svc.customers["c1"]; ok {
			t.Fatal("expected customer to be deleted")
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := setupCustomerTestRouter(newCustomerFixture())
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/customers/missing", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestRefreshStatuses(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.refreshed = 3
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers/refresh-statuses", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var resp struct {
			Success bool `json:"success"`
			Updated int  `json:"updated"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if !resp.Success || resp.Updated != 3 {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		svc := newCustomerFixture()
		svc.refreshed = 1
		svc.refreshErr = errors.New("update customer c2: timeout")
		r := setupCustomerTestRouter(svc)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/customers/refresh-statuses", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestCustomersHandler_CreateBodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", middleware.BodyLimit(32, zerolog.Nop()))
	NewCustomersHandler(newCustomerFixture(), zerolog.Nop()).RegisterRoutes(api)

	payload := `{"name":"` + strings.Repeat("a", 64) + `","packageId":"p1","startDate":"2024-01-01"}`
	// No declared length, so the limit trips while the JSON is decoded.
	req, _ := http.NewRequest("POST", "/api/v1/customers", io.MultiReader(strings.NewReader(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}
