package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CurrentPlan returns the "Pro" plan when one exists, else the oldest plan,
// else the built-in demo plan.
func (s *Service) CurrentPlan(ctx context.Context) (*Plan, error) {
	p, err := s.repo.FindByName(ctx, preferredPlan)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("find %s plan: %w", preferredPlan, err)
	}

	p, err = s.repo.Oldest(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("find oldest plan: %w", err)
	}
	return DemoPlan(s.now().UTC()), nil
}

// SavePlan stores p by id. Used by seeding.
func (s *Service) SavePlan(ctx context.Context, p *Plan) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("plan id and name are required")
	}
	if p.MaxClients <= 0 {
		return fmt.Errorf("plan %s: maxClients must be positive", p.ID)
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return s.repo.Upsert(ctx, p)
}
