package event

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

type mockClients map[uuid.UUID]auth.ClientRecord

func (m mockClients) LoadClientRecord(_ context.Context, id uuid.UUID) (auth.ClientRecord, error) {
	rec, ok := m[id]
	if !ok {
		return auth.ClientRecord{}, db.ErrNotFound
	}
	return rec, nil
}

// mockRepo evaluates client filters in memory against the known clients.
type mockRepo struct {
	events  []*Event
	clients mockClients
}

func (m *mockRepo) Create(_ context.Context, e *Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockRepo) sorted(keep func(*Event) bool) []*Event {
	var out []*Event
	for _, e := range m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (m *mockRepo) ListByClient(_ context.Context, clientID uuid.UUID, limit int) ([]*Event, error) {
	out := m.sorted(func(e *Event) bool { return e.ClientID != nil && *e.ClientID == clientID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) Window(_ context.Context, filter auth.ClientFilter, from, to time.Time, limit int) ([]*Event, error) {
	out := m.sorted(func(e *Event) bool {
		if e.ScheduledAt.Before(from) || e.ScheduledAt.After(to) {
			return false
		}
		if e.ClientID == nil {
			return true
		}
		rec, ok := m.clients[*e.ClientID]
		return ok && filter.Matches(rec)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	repo   *mockRepo
	mine   uuid.UUID
	theirs uuid.UUID
	coach  auth.AuthUser
}

func newFixture() *fixture {
	coachID := uuid.New().String()
	mine, theirs := uuid.New(), uuid.New()
	clients := mockClients{
		mine:   {ID: mine.String(), UserID: coachID},
		theirs: {ID: theirs.String(), UserID: uuid.New().String()},
	}
	repo := &mockRepo{clients: clients}
	svc := NewService(repo, clients)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{
		svc:    svc,
		repo:   repo,
		mine:   mine,
		theirs: theirs,
		coach:  auth.AuthUser{ID: coachID, Role: auth.RoleNutritionist},
	}
}

func (f *fixture) add(clientID *uuid.UUID, title string, in time.Duration) {
	f.repo.events = append(f.repo.events, &Event{ID: uuid.New(), ClientID: clientID, Title: title, Type: "CALL", ScheduledAt: fixedNow.Add(in)})
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	channel := "zoom"

	e, err := f.svc.Create(context.Background(), f.coach, f.mine, CreateRequest{
		Title: "Созвон", ScheduledAt: "2024-06-03T10:00:00Z", Type: "CALL", Channel: &channel,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ClientID == nil || *e.ClientID != f.mine {
		t.Error("expected event to belong to the client")
	}
	if !e.ScheduledAt.Equal(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected scheduledAt %s", e.ScheduledAt)
	}
	if len(f.repo.events) != 1 {
		t.Errorf("expected 1 stored event, got %d", len(f.repo.events))
	}
}

func TestService_Create_Errors(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name   string
		client uuid.UUID
		req    CreateRequest
		want   error
	}{
		{"missing title", f.mine, CreateRequest{ScheduledAt: "2024-06-03", Type: "CALL"}, ErrMissingFields},
		{"missing type", f.mine, CreateRequest{Title: "x", ScheduledAt: "2024-06-03"}, ErrMissingFields},
		{"missing date", f.mine, CreateRequest{Title: "x", Type: "CALL"}, ErrMissingFields},
		{"bad date", f.mine, CreateRequest{Title: "x", ScheduledAt: "tomorrow", Type: "CALL"}, ErrInvalidScheduledAt},
		{"foreign client", f.theirs, CreateRequest{Title: "x", ScheduledAt: "2024-06-03", Type: "CALL"}, auth.ErrClientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.coach, tt.client, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_List(t *testing.T) {
	f := newFixture()
	f.add(&f.mine, "second", 48*time.Hour)
	f.add(&f.mine, "first", -24*time.Hour)
	f.add(&f.theirs, "other", time.Hour)

	items, err := f.svc.List(context.Background(), f.coach, f.mine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].Title != "first" {
		t.Errorf("expected ascending own events, got %+v", items)
	}

	if _, err := f.svc.List(context.Background(), f.coach, f.theirs); !errors.Is(err, auth.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestService_Upcoming(t *testing.T) {
	f := newFixture()
	f.add(&f.mine, "tomorrow", 24*time.Hour)
	f.add(nil, "webinar", 2*time.Hour)
	f.add(&f.theirs, "hidden", 3*time.Hour)
	f.add(&f.mine, "past", -time.Hour)
	f.add(&f.mine, "too far", 8*24*time.Hour)
	f.add(&f.mine, "edge", UpcomingWindow)

	items, err := f.svc.Upcoming(context.Background(), f.coach)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var titles []string
	for _, e := range items {
		titles = append(titles, e.Title)
	}
	want := []string{"webinar", "tomorrow", "edge"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("expected %v, got %v", want, titles)
			break
		}
	}
}

func TestService_UpcomingLimit(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.add(&f.mine, "call", time.Duration(i+1)*time.Hour)
	}
	items, err := f.svc.UpcomingLimit(context.Background(), f.coach, 3)
	if err != nil || len(items) != 3 {
		t.Errorf("expected 3 events, got %d (%v)", len(items), err)
	}
}
