// Package seed loads demo data through the domain services, so seeded rows
// get the same validation and lab classification as API writes.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriflow/nutriflow/internal/domain/billing"
	"github.com/nutriflow/nutriflow/internal/domain/client"
	"github.com/nutriflow/nutriflow/internal/domain/event"
	"github.com/nutriflow/nutriflow/internal/domain/identity"
	"github.com/nutriflow/nutriflow/internal/domain/lab"
	"github.com/nutriflow/nutriflow/internal/domain/menu"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Users interface {
	EnsureUser(ctx context.Context, u *identity.User, password string) error
}

type Markers interface {
	Upsert(ctx context.Context, m *lab.MarkerRef) error
}

type Labs interface {
	CreateBatch(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, items []lab.BatchItem) ([]*lab.LabTest, error)
}

type Menus interface {
	EnsureTemplate(ctx context.Context, t *menu.Template) (*menu.Template, error)
	Assign(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, req menu.AssignRequest) (*menu.Assignment, error)
}

type Clients interface {
	Ensure(ctx context.Context, c *client.Client) (*client.Client, bool, error)
	SetNorms(ctx context.Context, clientID uuid.UUID, n client.NutrientNorms) error
	RecordDay(ctx context.Context, st *client.DayStats) error
}

type Events interface {
	Schedule(ctx context.Context, e *event.Event) error
}

type Plans interface {
	SavePlan(ctx context.Context, p *billing.Plan) error
}

// Deps are the services the seeder writes through.
type Deps struct {
	Users   Users
	Markers Markers
	Labs    Labs
	Menus   Menus
	Clients Clients
	Events  Events
	Plans   Plans
}

// Report counts what a run wrote.
type Report struct {
	Users          int
	Markers        int
	MenuTemplates  int
	ClientsCreated int
	ClientsSkipped int
	LabTests       int
	Events         int
	Plans          int
}

type Seeder struct {
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time
}

func New(deps Deps, logger zerolog.Logger) *Seeder {
	return &Seeder{deps: deps, logger: logger, now: time.Now}
}

// Run applies f. Users, markers, templates and plans are upserted; a client
// that already exists for its owner is left untouched.
func (s *Seeder) Run(ctx context.Context, f *File) (*Report, error) {
	rep := &Report{}
	now := s.now().UTC()

	users := make(map[string]*identity.User, len(f.Users))
	for _, su := range f.Users {
		u := &identity.User{Email: su.Email, Role: auth.ParseRole(su.Role)}
		if su.Name != "" {
			u.Name = strPtr(su.Name)
		}
		if su.TenantID != "" {
			u.TenantID = strPtr(su.TenantID)
		}
		if err := s.deps.Users.EnsureUser(ctx, u, su.Password); err != nil {
			return rep, fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		users[su.Email] = u
		rep.Users++
		s.logger.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("seeded user")
	}

	for _, m := range f.Markers {
		if err := s.deps.Markers.Upsert(ctx, m); err != nil {
			return rep, fmt.Errorf("seed marker %s: %w", m.Code, err)
		}
		rep.Markers++
	}

	templates := make(map[string]*menu.Template, len(f.MenuTemplates))
	for _, t := range f.MenuTemplates {
		saved, err := s.deps.Menus.EnsureTemplate(ctx, t)
		if err != nil {
			return rep, fmt.Errorf("seed menu template %s: %w", t.Name, err)
		}
		templates[t.Name] = saved
		rep.MenuTemplates++
	}

	for _, sc := range f.Clients {
		owner, ok := users[sc.Owner]
		if !ok {
			return rep, fmt.Errorf("client %s: unknown owner %q", sc.FullName, sc.Owner)
		}
		created, err := s.seedClient(ctx, f, sc, owner, templates, now, rep)
		if err != nil {
			return rep, fmt.Errorf("seed client %s: %w", sc.FullName, err)
		}
		if created {
			rep.ClientsCreated++
		} else {
			rep.ClientsSkipped++
			s.logger.Info().Str("client", sc.FullName).Msg("client exists, skipping")
		}
	}

	for _, p := range f.Plans {
		if err := s.deps.Plans.SavePlan(ctx, p); err != nil {
			return rep, fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
		rep.Plans++
	}

	s.logger.Info().
		Int("users", rep.Users).
		Int("markers", rep.Markers).
		Int("clients_created", rep.ClientsCreated).
		Int("clients_skipped", rep.ClientsSkipped).
		Int("lab_tests", rep.LabTests).
		Int("events", rep.Events).
		Int("plans", rep.Plans).
		Msg("seed completed")
	return rep, nil
}

func (s *Seeder) seedClient(ctx context.Context, f *File, sc Client, owner *identity.User, templates map[string]*menu.Template, now time.Time, rep *Report) (bool, error) {
	status := client.Status(sc.Status)
	if status == "" {
		status = client.StatusActive
	}
	c := &client.Client{
		UserID:   owner.ID,
		TenantID: owner.TenantID,
		FullName: sc.FullName,
		Status:   status,
	}
	if sc.Goal != "" {
		c.Goal = strPtr(sc.Goal)
	}
	c, created, err := s.deps.Clients.Ensure(ctx, c)
	if err != nil || !created {
		return false, err
	}

	norms := f.Norms.toClient()
	if err := s.deps.Clients.SetNorms(ctx, c.ID, norms); err != nil {
		return true, fmt.Errorf("norms: %w", err)
	}
	if err := s.deps.Clients.RecordDay(ctx, dayStats(c.ID, now, norms, sc.Coverage)); err != nil {
		return true, fmt.Errorf("day stats: %w", err)
	}

	as := owner.AuthUser()
	if len(sc.Labs) > 0 {
		items := make([]lab.BatchItem, 0, len(sc.Labs))
		for _, l := range sc.Labs {
			v := l.Value
			items = append(items, lab.BatchItem{
				MarkerCode: l.Marker,
				Value:      &v,
				Unit:       l.Unit,
				Type:       orDefault(l.Type, "Blood"),
				TakenAt:    now.AddDate(0, 0, -l.DaysAgo).Format(time.RFC3339),
			})
		}
		tests, err := s.deps.Labs.CreateBatch(ctx, as, c.ID, items)
		if err != nil {
			return true, fmt.Errorf("labs: %w", err)
		}
		rep.LabTests += len(tests)
	}

	if sc.Menu != "" {
		t, ok := templates[sc.Menu]
		if !ok {
			return true, fmt.Errorf("unknown menu template %q", sc.Menu)
		}
		if _, err := s.deps.Menus.Assign(ctx, as, c.ID, menu.AssignRequest{MenuTemplateID: t.ID.String()}); err != nil {
			return true, fmt.Errorf("menu: %w", err)
		}
	}

	for _, se := range sc.Events {
		clientID := c.ID
		e := &event.Event{
			ID:          uuid.New(),
			ClientID:    &clientID,
			Title:       se.Title,
			Type:        se.Type,
			ScheduledAt: now.AddDate(0, 0, se.InDays),
		}
		if se.Description != "" {
			e.Description = strPtr(se.Description)
		}
		if se.Channel != "" {
			e.Channel = strPtr(se.Channel)
		}
		if err := s.deps.Events.Schedule(ctx, e); err != nil {
			return true, fmt.Errorf("event %s: %w", se.Title, err)
		}
		rep.Events++
	}
	return true, nil
}

// dayStats turns coverage ratios into absolute intakes against the norms:
// the kcal target is the middle of the kcal range.
func dayStats(clientID uuid.UUID, now time.Time, n client.NutrientNorms, cov Coverage) *client.DayStats {
	kcalTarget := 0.0
	if n.KcalMin != nil && n.KcalMax != nil {
		kcalTarget = (*n.KcalMin + *n.KcalMax) / 2
	}
	return &client.DayStats{
		ID:              uuid.New(),
		ClientID:        clientID,
		Date:            now.Truncate(24 * time.Hour),
		Kcal:            math.Round(cov.Kcal * kcalTarget),
		Protein:         math.Round(cov.Protein * deref(n.ProteinGrams)),
		Fiber:           math.Round(cov.Fiber * deref(n.FiberGrams)),
		KcalCoverage:    floatPtr(cov.Kcal),
		ProteinCoverage: floatPtr(cov.Protein),
		FiberCoverage:   floatPtr(cov.Fiber),
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
