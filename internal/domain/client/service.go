package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nutriflow/nutriflow/internal/domain/event"
	"github.com/nutriflow/nutriflow/internal/domain/lab"
	"github.com/nutriflow/nutriflow/internal/domain/menu"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
)

const (
	profileLabs   = 10
	profileEvents = 10
)

type LabSource interface {
	RecentTests(ctx context.Context, clientID uuid.UUID, n int) ([]*lab.LabTest, error)
}

type MenuSource interface {
	ActiveAssignment(ctx context.Context, clientID uuid.UUID) (*menu.Assignment, error)
	Assign(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, req menu.AssignRequest) (*menu.Assignment, error)
}

type EventSource interface {
	ForClient(ctx context.Context, clientID uuid.UUID, n int) ([]*event.Event, error)
}

type Service struct {
	repo   Repository
	labs   LabSource
	menus  MenuSource
	events EventSource
}

func NewService(repo Repository, labs LabSource, menus MenuSource, events EventSource) *Service {
	return &Service{repo: repo, labs: labs, menus: menus, events: events}
}

// List returns the summaries of every client the user may access.
func (s *Service) List(ctx context.Context, user auth.AuthUser) ([]Summary, error) {
	items, err := s.repo.List(ctx, auth.AccessibleClientFilter(user))
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(items))
	for _, item := range items {
		out = append(out, ToSummary(item))
	}
	return out, nil
}

// load fetches the client and checks access. Missing and denied clients both
// yield auth.ErrClientNotFound.
func (s *Service) load(ctx context.Context, user auth.AuthUser, id uuid.UUID) (*Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, auth.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if !auth.CanAccessClient(user, c.Record()) {
		return nil, auth.ErrClientNotFound
	}
	return c, nil
}

func (s *Service) Profile(ctx context.Context, user auth.AuthUser, id uuid.UUID) (*Profile, error) {
	c, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, c)
}

func (s *Service) buildProfile(ctx context.Context, c *Client) (*Profile, error) {
	p := &Profile{
		ID:     c.ID,
		Name:   c.FullName,
		Status: c.Status.Label(),
		Goal:   c.Goal,
		Labs:   []*lab.LabTest{},
		Events: []*event.Event{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.GetNorms(gctx, c.ID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		p.Norms = n
		return err
	})
	g.Go(func() error {
		st, err := s.repo.LatestDayStats(gctx, c.ID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		p.DayStats = st
		return err
	})
	g.Go(func() error {
		labs, err := s.labs.RecentTests(gctx, c.ID, profileLabs)
		if len(labs) > 0 {
			p.Labs = labs
		}
		return err
	})
	g.Go(func() error {
		a, err := s.menus.ActiveAssignment(gctx, c.ID)
		p.ActiveMenu = a
		return err
	})
	g.Go(func() error {
		events, err := s.events.ForClient(gctx, c.ID, profileEvents)
		if len(events) > 0 {
			p.Events = events
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// UpdateNorms applies a partial norms update and returns the new profile.
func (s *Service) UpdateNorms(ctx context.Context, user auth.AuthUser, id uuid.UUID, patch NormsPatch) (*Profile, error) {
	if len(patch) == 0 {
		return nil, ErrNoNormFields
	}
	c, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.UpsertNorms(ctx, c.ID, patch); err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, c)
}

// AssignMenu activates a menu template and returns the new profile.
func (s *Service) AssignMenu(ctx context.Context, user auth.AuthUser, id uuid.UUID, req menu.AssignRequest) (*Profile, error) {
	if _, err := s.menus.Assign(ctx, user, id, req); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, c)
}

// -- Seeding --

func (s *Service) Create(ctx context.Context, c *Client) error {
	if c.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	if c.UserID == uuid.Nil {
		return fmt.Errorf("owner is required")
	}
	return s.repo.Create(ctx, c)
}

// Ensure returns the owner's client with c.FullName, creating it when missing.
func (s *Service) Ensure(ctx context.Context, c *Client) (*Client, bool, error) {
	existing, err := s.repo.FindByName(ctx, c.UserID, c.FullName)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, err
	}
	if err := s.Create(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Service) SetNorms(ctx context.Context, clientID uuid.UUID, n NutrientNorms) error {
	_, err := s.repo.UpsertNorms(ctx, clientID, FullPatch(n))
	return err
}

// RecordDay stores day stats, deriving the risk flags from the coverages
// when none are given.
func (s *Service) RecordDay(ctx context.Context, st *DayStats) error {
	if len(st.RiskFlags) == 0 {
		st.RiskFlags = RiskFlags(st.KcalCoverage, st.ProteinCoverage, st.FiberCoverage)
	}
	return s.repo.UpsertDayStats(ctx, st)
}
