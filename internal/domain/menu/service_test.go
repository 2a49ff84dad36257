package menu

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// -- Mocks --

type mockTemplateRepo struct {
	items map[uuid.UUID]*Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{items: make(map[uuid.UUID]*Template)}
}

func (m *mockTemplateRepo) Create(_ context.Context, t *Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.items[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return t, nil
}

func (m *mockTemplateRepo) GetByName(_ context.Context, name string) (*Template, error) {
	for _, t := range m.items {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockTemplateRepo) List(_ context.Context) ([]*Template, error) {
	var out []*Template
	for _, t := range m.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type mockAssignmentRepo struct {
	items []*Assignment
	fail  bool
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *Assignment) error {
	if m.fail {
		return errors.New("insert failed")
	}
	m.items = append(m.items, a)
	return nil
}

func (m *mockAssignmentRepo) DeactivateAll(_ context.Context, clientID uuid.UUID) error {
	for _, a := range m.items {
		if a.ClientID == clientID {
			a.IsActive = false
		}
	}
	return nil
}

func (m *mockAssignmentRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]*Assignment, error) {
	var out []*Assignment
	for _, a := range m.items {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *mockAssignmentRepo) Active(ctx context.Context, clientID uuid.UUID) (*Assignment, error) {
	all, _ := m.ListByClient(ctx, clientID)
	for _, a := range all {
		if a.IsActive {
			return a, nil
		}
	}
	return nil, db.ErrNotFound
}

type mockClients map[uuid.UUID]auth.ClientRecord

func (m mockClients) LoadClientRecord(_ context.Context, id uuid.UUID) (auth.ClientRecord, error) {
	rec, ok := m[id]
	if !ok {
		return auth.ClientRecord{}, db.ErrNotFound
	}
	return rec, nil
}

// snapshotTx restores assignment state when fn fails.
type snapshotTx struct {
	repo *mockAssignmentRepo
}

func (s snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := make([]Assignment, len(s.repo.items))
	for i, a := range s.repo.items {
		saved[i] = *a
	}
	if err := fn(ctx); err != nil {
		for i := range saved {
			*s.repo.items[i] = saved[i]
		}
		s.repo.items = s.repo.items[:len(saved)]
		return err
	}
	return nil
}

// -- Fixtures --

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc         *Service
	templates   *mockTemplateRepo
	assignments *mockAssignmentRepo
	clientID    uuid.UUID
	owner       auth.AuthUser
	template    *Template
}

func newFixture() *fixture {
	tenant := "demo-tenant"
	ownerID := uuid.New()
	clientID := uuid.New()

	templates := newMockTemplateRepo()
	assignments := &mockAssignmentRepo{}
	clients := mockClients{clientID: {ID: clientID.String(), UserID: ownerID.String(), TenantID: &tenant}}

	svc := NewService(templates, assignments, clients, snapshotTx{repo: assignments})
	svc.now = func() time.Time { return fixedNow }

	tmpl := &Template{Name: "Базовое меню баланса"}
	templates.Create(context.Background(), tmpl)

	return &fixture{
		svc:         svc,
		templates:   templates,
		assignments: assignments,
		clientID:    clientID,
		owner:       auth.AuthUser{ID: uuid.New().String(), Role: auth.RoleOwner, TenantID: &tenant},
		template:    tmpl,
	}
}

// -- Tests --

func TestService_Assign(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Assign(ctx, f.owner, f.clientID, AssignRequest{MenuTemplateID: f.template.ID.String(), StartDate: "2024-05-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.Assign(ctx, f.owner, f.clientID, AssignRequest{MenuTemplateID: f.template.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.IsActive {
		t.Error("expected the previous assignment to be deactivated")
	}
	if !second.IsActive || !second.StartDate.Equal(fixedNow) {
		t.Errorf("unexpected new assignment %+v", second)
	}
	if second.MenuTemplate == nil || second.MenuTemplate.Name != f.template.Name {
		t.Error("expected the template to be attached")
	}

	m, err := f.svc.ClientMenu(ctx, f.owner, f.clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Active) != 1 || len(m.Archived) != 1 {
		t.Errorf("expected 1 active and 1 archived, got %d/%d", len(m.Active), len(m.Archived))
	}

	active, err := f.svc.ActiveAssignment(ctx, f.clientID)
	if err != nil || active == nil || active.ID != second.ID {
		t.Errorf("expected active assignment %s, got %v (%v)", second.ID, active, err)
	}
}

func TestService_Assign_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tmpl := f.template.ID.String()

	tests := []struct {
		name    string
		user    auth.AuthUser
		client  uuid.UUID
		req     AssignRequest
		wantErr error
	}{
		{"missing template", f.owner, f.clientID, AssignRequest{}, ErrTemplateRequired},
		{"unknown template", f.owner, f.clientID, AssignRequest{MenuTemplateID: uuid.New().String()}, ErrTemplateNotFound},
		{"malformed template id", f.owner, f.clientID, AssignRequest{MenuTemplateID: "abc"}, ErrTemplateNotFound},
		{"bad start", f.owner, f.clientID, AssignRequest{MenuTemplateID: tmpl, StartDate: "soon"}, ErrInvalidStartDate},
		{"bad end", f.owner, f.clientID, AssignRequest{MenuTemplateID: tmpl, EndDate: "later"}, ErrInvalidEndDate},
		{"end before start", f.owner, f.clientID, AssignRequest{MenuTemplateID: tmpl, StartDate: "2024-05-10", EndDate: "2024-05-01"}, ErrEndBeforeStart},
		{"unknown client", f.owner, uuid.New(), AssignRequest{MenuTemplateID: tmpl}, auth.ErrClientNotFound},
		{"other tenant", auth.AuthUser{ID: uuid.New().String(), Role: auth.RoleAdmin, TenantID: strPtr("other")}, f.clientID, AssignRequest{MenuTemplateID: tmpl}, auth.ErrClientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assign(ctx, tt.user, tt.client, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if len(f.assignments.items) != 0 {
		t.Errorf("expected no assignments, got %d", len(f.assignments.items))
	}
}

func TestService_Assign_RollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prev, err := f.svc.Assign(ctx, f.owner, f.clientID, AssignRequest{MenuTemplateID: f.template.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.assignments.fail = true
	if _, err := f.svc.Assign(ctx, f.owner, f.clientID, AssignRequest{MenuTemplateID: f.template.ID.String()}); err == nil {
		t.Fatal("expected error")
	}
	if !prev.IsActive {
		t.Error("expected previous assignment to stay active after rollback")
	}
}

func TestService_ActiveAssignment_None(t *testing.T) {
	f := newFixture()
	a, err := f.svc.ActiveAssignment(context.Background(), f.clientID)
	if err != nil || a != nil {
		t.Errorf("expected nil assignment, got %v (%v)", a, err)
	}
}

func TestService_EnsureTemplate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	got, err := f.svc.EnsureTemplate(ctx, &Template{Name: f.template.Name})
	if err != nil || got.ID != f.template.ID {
		t.Fatalf("expected existing template, got %v (%v)", got, err)
	}
	created, err := f.svc.EnsureTemplate(ctx, &Template{Name: "Средиземноморское"})
	if err != nil || created.ID == uuid.Nil {
		t.Fatalf("expected new template, got %v (%v)", created, err)
	}
	if len(f.templates.items) != 2 {
		t.Errorf("expected 2 templates, got %d", len(f.templates.items))
	}
}

func strPtr(s string) *string { return &s }
