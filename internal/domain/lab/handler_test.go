package lab

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/pkg/pagination"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func newContext(e *echo.Echo, req *http.Request, user *auth.AuthUser, clientID string) (echo.Context, *httptest.ResponseRecorder) {
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(clientID)
	return c, rec
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != want {
		t.Errorf("expected status %d, got %d (%v)", want, he.Code, he.Message)
	}
}

func TestHandler_CreateBatch(t *testing.T) {
	h, f, e := newTestHandler()

	body := `{"items":[{"markerCode":"ferritin","value":12,"takenAt":"2024-05-01"},{"markerCode":"hb","value":130}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(e, req, &f.owner, f.clientID.String())

	if err := h.CreateBatch(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var created []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 items, got %d", len(created))
	}
	if created[0]["status"] != "LOW" || created[0]["marker"] != "FERRITIN" {
		t.Errorf("unexpected first item %v", created[0])
	}
}

func TestHandler_CreateBatch_Invalid(t *testing.T) {
	h, f, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"value":1}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newContext(e, req, &f.owner, f.clientID.String())

	err := h.CreateBatch(c)
	assertHTTPStatus(t, err, http.StatusBadRequest)
	if msg := err.(*echo.HTTPError).Message.(string); !strings.Contains(msg, "markerCode is required") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestHandler_DeniedAndMissingLookTheSame(t *testing.T) {
	h, f, e := newTestHandler()

	for _, id := range []string{f.clientID.String(), "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c, _ := newContext(e, req, &f.stranger, id)
		err := h.Summary(c)
		assertHTTPStatus(t, err, http.StatusNotFound)
		if msg := err.(*echo.HTTPError).Message; msg != "client not found" {
			t.Errorf("expected uniform message, got %v", msg)
		}
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	h, f, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(e, req, nil, f.clientID.String())
	assertHTTPStatus(t, h.ListTests(c), http.StatusUnauthorized)
}

func TestHandler_ListTests(t *testing.T) {
	h, f, e := newTestHandler()
	f.seed("HB", 130, 2)
	f.seed("HB", 140, 1)

	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	c, rec := newContext(e, req, &f.owner, f.clientID.String())
	if err := h.ListTests(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || resp.Limit != pagination.MaxLimit {
		t.Errorf("unexpected page %+v", resp)
	}
}

func TestHandler_Series_MissingMarker(t *testing.T) {
	h, f, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(e, req, &f.owner, f.clientID.String())
	assertHTTPStatus(t, h.Series(c), http.StatusBadRequest)
}

func TestHandler_Summary(t *testing.T) {
	h, f, e := newTestHandler()
	f.seed("FERRITIN", 12, 30)
	f.seed("FERRITIN", 25, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(e, req, &f.owner, f.clientID.String())
	if err := h.Summary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Markers []map[string]interface{} `json:"markers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Markers) != 1 || resp.Markers[0]["trend"] != "up" || resp.Markers[0]["delta"] != 13.0 {
		t.Errorf("unexpected summary %v", resp.Markers)
	}
}

func multipartBody(t *testing.T, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadAndDownloadReport(t *testing.T) {
	h, f, e := newTestHandler()

	body, ct := multipartBody(t, "ferritin.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, ct)
	c, rec := newContext(e, req, &f.owner, f.clientID.String())
	if err := h.UploadReport(c); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var rep LabReport
	json.Unmarshal(rec.Body.Bytes(), &rep)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec = newContext(e, req, &f.owner, f.clientID.String())
	c.SetParamNames("id", "reportId")
	c.SetParamValues(f.clientID.String(), rep.ID.String())
	if err := h.DownloadReport(c); err != nil {
		t.Fatalf("download: %v", err)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/pdf" {
		t.Errorf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "ferritin.pdf") {
		t.Errorf("expected file name in content disposition")
	}
}

func TestHandler_UploadReport_MissingFile(t *testing.T) {
	h, f, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	c, _ := newContext(e, req, &f.owner, f.clientID.String())
	assertHTTPStatus(t, h.UploadReport(c), http.StatusBadRequest)
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api"))

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}
	for _, path := range []string{
		"GET:/api/clients/:id/labs",
		"POST:/api/clients/:id/labs/batch",
		"GET:/api/clients/:id/labs/markers",
		"GET:/api/clients/:id/labs/series",
		"GET:/api/clients/:id/labs/summary",
		"POST:/api/clients/:id/labs/reports",
		"GET:/api/clients/:id/labs/reports",
		"GET:/api/clients/:id/labs/reports/:reportId",
	} {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
