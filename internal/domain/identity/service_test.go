package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
	"github.com/nutriflow/nutriflow/internal/platform/metrics"
)

var testKey = []byte("identity-test-signing-key")

// -- Mock Repository --

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockUserRepo) Upsert(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if existing.Email == u.Email {
			u.ID = id
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

type failingIssuer struct{}

func (failingIssuer) Issue(auth.AuthUser) (string, error) {
	return "", errors.New("no key")
}

// -- Fixtures --

type fixture struct {
	svc     *Service
	repo    *mockUserRepo
	metrics *metrics.Metrics
	admin   *User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockUserRepo()
	svc := NewService(repo, auth.NewTokenIssuer(testKey, "", time.Hour))
	m := metrics.New()
	svc.SetMetrics(m)

	name := "Demo Admin"
	tenant := "demo-tenant"
	admin := &User{Email: "admin@nutriflow.local", Name: &name, Role: auth.RoleOwner, TenantID: &tenant}
	if err := svc.EnsureUser(context.Background(), admin, "admin123"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &fixture{svc: svc, repo: repo, metrics: m, admin: admin}
}

func (f *fixture) metricsBody(t *testing.T) string {
	t.Helper()
	e := echo.New()
	e.GET("/metrics", f.metrics.Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

// -- Tests --

func TestService_Login(t *testing.T) {
	f := newFixture(t)

	token, err := f.svc.Login(context.Background(), " admin@nutriflow.local ", "admin123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("expected a JWT, got %q", token)
	}
	if body := f.metricsBody(t); !strings.Contains(body, `nutriflow_auth_logins_total{result="success"} 1`) {
		t.Errorf("expected a successful login to be counted")
	}
}

func TestService_Login_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		email, password string
		want            error
	}{
		{"", "admin123", ErrMissingCredentials},
		{"admin@nutriflow.local", "", ErrMissingCredentials},
		{"   ", "x", ErrMissingCredentials},
		{"nobody@nutriflow.local", "admin123", ErrInvalidCredentials},
		{"admin@nutriflow.local", "wrong", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		if _, err := f.svc.Login(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
			t.Errorf("login(%q): expected %v, got %v", tt.email, tt.want, err)
		}
	}
	if body := f.metricsBody(t); !strings.Contains(body, `nutriflow_auth_logins_total{result="invalid"} 2`) {
		t.Errorf("expected two invalid logins to be counted")
	}
}

func TestService_Login_StorageAndIssuerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.tokens = failingIssuer{}
	if _, err := f.svc.Login(ctx, "admin@nutriflow.local", "admin123"); err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected an issuer error, got %v", err)
	}

	f.repo.err = errors.New("db down")
	if _, err := f.svc.Login(ctx, "admin@nutriflow.local", "admin123"); err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected a storage error, got %v", err)
	}
}

func TestService_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	me, err := f.svc.Me(ctx, f.admin.AuthUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Email != "admin@nutriflow.local" || me.Name == nil || *me.Name != "Demo Admin" {
		t.Errorf("unexpected me %+v", me)
	}

	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		if _, err := f.svc.Me(ctx, auth.AuthUser{ID: id}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("id %q: expected ErrUserNotFound, got %v", id, err)
		}
	}
}

func TestService_EnsureUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again := &User{Email: "admin@nutriflow.local", Role: auth.RoleOwner}
	if err := f.svc.EnsureUser(ctx, again, "changed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != f.admin.ID {
		t.Errorf("expected the existing user to be updated")
	}
	if _, err := f.svc.Login(ctx, "admin@nutriflow.local", "changed"); err != nil {
		t.Errorf("expected the new password to work: %v", err)
	}

	coach := &User{Email: "coach@nutriflow.local"}
	if err := f.svc.EnsureUser(ctx, coach, "coach"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coach.Role != auth.RoleNutritionist {
		t.Errorf("expected default role NUTRITIONIST, got %s", coach.Role)
	}

	if err := f.svc.EnsureUser(ctx, &User{Email: "x@y", Role: "ROOT"}, "pw"); err == nil {
		t.Error("expected error for unknown role")
	}
}
