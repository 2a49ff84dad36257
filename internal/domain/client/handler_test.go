package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

func newRequestContext(e *echo.Echo, method, body string, user auth.AuthUser, clientID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if clientID != "" {
		c.SetParamNames("id")
		c.SetParamValues(clientID)
	}
	return c, rec
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestHandler_List(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	c, rec := newRequestContext(echo.New(), http.MethodGet, "", f.owner, "")

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(items))
	}
}

func TestHandler_Profile(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	c, rec := newRequestContext(echo.New(), http.MethodGet, "", f.owner, f.anna.ID.String())

	if err := h.Profile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	for _, key := range []string{"id", "name", "status", "goal", "norms", "dayStats", "labs", "activeMenu", "events"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q in profile", key)
		}
	}
	if body["norms"] != nil || body["activeMenu"] != nil {
		t.Errorf("expected null norms and activeMenu, got %v / %v", body["norms"], body["activeMenu"])
	}
}

func TestHandler_Profile_Denied(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := newRequestContext(echo.New(), http.MethodGet, "", f.coach, f.anna.ID.String())
	expectStatus(t, h.Profile(c), http.StatusNotFound)

	c, _ = newRequestContext(echo.New(), http.MethodGet, "", f.coach, "garbage")
	expectStatus(t, h.Profile(c), http.StatusNotFound)
}

func TestHandler_UpdateNorms(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newRequestContext(echo.New(), http.MethodPut, `{"kcalMin":1800,"kcalMax":2200}`, f.coach, f.igor.ID.String())
	if err := h.UpdateNorms(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Profile
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Norms == nil || *p.Norms.KcalMax != 2200 {
		t.Errorf("unexpected norms %+v", p.Norms)
	}
}

func TestHandler_UpdateNorms_Invalid(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	tests := []struct {
		body string
		want string
	}{
		{`{}`, "At least one norm field must be provided"},
		{`{"kcalMin":"a lot"}`, "Field kcalMin must be a number if provided"},
	}
	for _, tt := range tests {
		c, _ := newRequestContext(echo.New(), http.MethodPut, tt.body, f.coach, f.igor.ID.String())
		err := h.UpdateNorms(c)
		expectStatus(t, err, http.StatusBadRequest)
		if msg := err.(*echo.HTTPError).Message; msg != tt.want {
			t.Errorf("expected %q, got %v", tt.want, msg)
		}
	}
}

func TestHandler_AssignMenu(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newRequestContext(echo.New(), http.MethodPost, `{"menuTemplateId":"`+f.anna.ID.String()+`"}`, f.owner, f.anna.ID.String())
	if err := h.AssignMenu(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	f := newFixture()
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))

	routes := map[string]bool{}
	for _, r := range e.Routes() {
		routes[r.Method+":"+r.Path] = true
	}
	for _, want := range []string{
		"GET:/api/clients",
		"GET:/api/clients/:id/profile",
		"PUT:/api/clients/:id/norms",
		"POST:/api/clients/:id/menu-assignment",
	} {
		if !routes[want] {
			t.Errorf("missing expected route: %s", want)
		}
	}
}
