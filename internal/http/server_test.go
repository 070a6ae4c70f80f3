package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/core"
	"finboard/internal/remote"
	"finboard/internal/services"
	"finboard/internal/store"
)

var testNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

type brokenCatalog struct {
	*remote.MemoryBackend
}

func (brokenCatalog) ListCategories(context.Context) ([]core.Category, error) {
	return nil, errors.New("connection reset")
}

func newTestServer(t *testing.T, backend remote.Backend) (*Server, *services.FinanceService) {
	t.Helper()
	st := store.New(store.WithConflictTTL(time.Minute))
	t.Cleanup(st.Close)
	svc := services.NewFinanceService(services.Options{
		Backend: backend,
		Store:   st,
		Now:     func() time.Time { return testNow },
	})
	srv := NewServer(":0", svc, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, svc := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load status=%d", rr.Code)
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Fatalf("readyz after load status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestCreateTransactionValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount": "0", "description": " ", "category": "1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid create status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := decode[ErrorBody](t, rr)
	for _, field := range []string{"amount", "date", "description"} {
		if body.Fields[field] == "" {
			t.Errorf("missing field error for %s: %v", field, body.Fields)
		}
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": 12.5, "date": "2024-03-02", "description": "Groceries", "category": "1", "type": "expense"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(ChangedHeader) != entityTransaction {
		t.Errorf("%s = %q", ChangedHeader, rr.Header().Get(ChangedHeader))
	}
	created := decode[core.Transaction](t, rr)
	if created.ID == "" || created.Category.Name != "Food & Dining" || created.Amount != 12.5 {
		t.Errorf("unexpected transaction: %+v", created)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?type=expense&sort=amount", "")
	list := decode[[]core.Transaction](t, rr)
	if len(list) != 1 {
		t.Fatalf("list len=%d", len(list))
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?sort=category", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad sort status=%d", rr.Code)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "20", "date": "2024-03-02", "description": "Bus pass", "category": "2"}`)
	created := decode[core.Transaction](t, rr)

	rr = do(t, srv, http.MethodPut, "/api/transactions/"+created.ID,
		`{"amount": "25", "date": "2024-03-02", "description": "Bus pass", "category": "2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/api/transactions/missing",
		`{"amount": "25", "date": "2024-03-02", "description": "Bus pass", "category": "2"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("update missing status=%d", rr.Code)
	}

	if rr = do(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr = do(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status=%d", rr.Code)
	}
}

func TestBudgetConflictAndComparison(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	budget := `category=1&amount=100&month=2024-03`
	req := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, r)
		return rr
	}

	if rr := req(budget); rr.Code != http.StatusCreated {
		t.Fatalf("create budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := req(budget)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate budget status=%d", rr.Code)
	}
	if got := decode[ErrorBody](t, rr).Error; got != store.ConflictMessage {
		t.Errorf("conflict message = %q", got)
	}

	state := decode[store.State](t, do(t, srv, http.MethodGet, "/api/state", ""))
	if state.Error != store.ConflictMessage {
		t.Errorf("state error = %q", state.Error)
	}
	if len(state.Budgets) != 1 {
		t.Errorf("budgets = %d, want 1", len(state.Budgets))
	}

	if rr := req(`category=9&amount=100&month=2024-03`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("income budget status=%d", rr.Code)
	}

	do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "90", "date": "2024-03-05", "description": "Dinner", "category": "1"}`)
	cmp := decode[[]analytics.BudgetComparison](t, do(t, srv, http.MethodGet, "/api/budgets/comparison?month=2024-03", ""))
	if len(cmp) != 1 || cmp[0].Status != analytics.StatusNearLimit {
		t.Errorf("comparison = %+v", cmp)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/budgets/"+state.Budgets[0].ID, ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete budget status=%d", rr.Code)
	}
}

func TestDashboardAndMonth(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	d := decode[services.Dashboard](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if d.Month != "2024-03" {
		t.Errorf("default month = %q", d.Month)
	}
	if rr := do(t, srv, http.MethodGet, "/api/dashboard?month=March", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad month status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodPut, "/api/month", `{"month": "2024-01"}`); rr.Code != http.StatusOK {
		t.Fatalf("set month status=%d body=%s", rr.Code, rr.Body.String())
	}
	d = decode[services.Dashboard](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if d.Month != "2024-01" {
		t.Errorf("month after set = %q", d.Month)
	}
	if rr := do(t, srv, http.MethodPut, "/api/month", `{"month": ""}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty month status=%d", rr.Code)
	}

	for _, path := range []string{"/api/categories/summary", "/api/expenses/monthly", "/api/insights"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
			t.Errorf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	all := decode[[]core.Category](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	if len(all) != len(remote.DefaultCategories) {
		t.Errorf("categories = %d", len(all))
	}
	budget := decode[[]core.Category](t, do(t, srv, http.MethodGet, "/api/categories?budget=true", ""))
	if len(budget) != len(all)-1 {
		t.Errorf("budget categories = %d", len(budget))
	}
}

func TestCategoryFailureIsBadGateway(t *testing.T) {
	srv, _ := newTestServer(t, brokenCatalog{remote.NewMemoryBackend(remote.DefaultCategories)})

	if rr := do(t, srv, http.MethodGet, "/api/categories", ""); rr.Code != http.StatusBadGateway {
		t.Errorf("categories status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "20", "date": "2024-03-02", "description": "Bus", "category": "2"}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("create status=%d", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	backend := remote.NewMemoryBackend(remote.DefaultCategories)
	srv, _ := newTestServer(t, backend)

	if _, err := backend.CreateBudget(context.Background(), core.Budget{
		Category: core.Category{ID: "3", Name: "Shopping"}, Amount: 50, Month: "2024-03",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rr := do(t, srv, http.MethodPost, "/api/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status=%d", rr.Code)
	}
	if state := decode[store.State](t, rr); len(state.Budgets) != 1 {
		t.Errorf("budgets after refresh = %d", len(state.Budgets))
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))

	if rr := do(t, srv, http.MethodGet, "/api/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPatch, "/api/state", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status=%d", rr.Code)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, remote.NewMemoryBackend(remote.DefaultCategories))
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
