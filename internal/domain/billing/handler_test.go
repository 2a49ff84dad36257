package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

func newContext(e *echo.Echo, withUser bool) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/billing/plan", nil)
	if withUser {
		req = req.WithContext(auth.WithUser(req.Context(), auth.AuthUser{ID: "u1", Role: auth.RoleOwner}))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Plan(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	c, rec := newContext(echo.New(), true)

	if err := h.Plan(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	for _, key := range []string{"id", "name", "maxClients", "features", "createdAt", "updatedAt"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestHandler_Plan_Unauthenticated(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	c, _ := newContext(echo.New(), false)

	he, ok := h.Plan(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", he)
	}
}

func TestHandler_Plan_Error(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("db down")
	h := NewHandler(NewService(repo))
	c, _ := newContext(echo.New(), true)

	he, ok := h.Plan(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", he)
	}
	if he.Message != "Failed to load billing plan" {
		t.Errorf("unexpected message %v", he.Message)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	e := echo.New()
	NewHandler(NewService(newMockRepo())).RegisterRoutes(e.Group("/api"))
	for _, r := range e.Routes() {
		if r.Method == http.MethodGet && r.Path == "/api/billing/plan" {
			return
		}
	}
	t.Error("missing route GET /api/billing/plan")
}
