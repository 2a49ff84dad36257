package event

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/pkg/timeparse"
)

const (
	// UpcomingWindow is how far ahead upcoming lists look.
	UpcomingWindow = 7 * 24 * time.Hour
	upcomingLimit  = 50
)

var (
	ErrMissingFields      = errors.New("title, scheduledAt and type are required")
	ErrInvalidScheduledAt = errors.New("Invalid scheduledAt")
)

type Service struct {
	repo    Repository
	clients auth.ClientLoader
	now     func() time.Time
}

func NewService(repo Repository, clients auth.ClientLoader) *Service {
	return &Service{repo: repo, clients: clients, now: time.Now}
}

func (s *Service) List(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) ([]*Event, error) {
	if err := auth.AuthorizeClient(ctx, s.clients, user, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListByClient(ctx, clientID, 0)
}

// ForClient returns the first n events of a client in schedule order.
// Callers authorize the client.
func (s *Service) ForClient(ctx context.Context, clientID uuid.UUID, n int) ([]*Event, error) {
	return s.repo.ListByClient(ctx, clientID, n)
}

func (s *Service) Create(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, req CreateRequest) (*Event, error) {
	if strings.TrimSpace(req.Title) == "" || req.ScheduledAt == "" || strings.TrimSpace(req.Type) == "" {
		return nil, ErrMissingFields
	}
	if err := auth.AuthorizeClient(ctx, s.clients, user, clientID); err != nil {
		return nil, err
	}
	at, err := timeparse.Parse(req.ScheduledAt)
	if err != nil {
		return nil, ErrInvalidScheduledAt
	}

	e := &Event{
		ID:          uuid.New(),
		ClientID:    &clientID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Channel:     req.Channel,
		ScheduledAt: at,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Upcoming lists events of the next UpcomingWindow visible to user.
func (s *Service) Upcoming(ctx context.Context, user auth.AuthUser) ([]*Event, error) {
	return s.UpcomingLimit(ctx, user, upcomingLimit)
}

func (s *Service) UpcomingLimit(ctx context.Context, user auth.AuthUser, limit int) ([]*Event, error) {
	now := s.now().UTC()
	return s.repo.Window(ctx, auth.AccessibleClientFilter(user), now, now.Add(UpcomingWindow), limit)
}

// Schedule stores an event as is. Used by seeding.
func (s *Service) Schedule(ctx context.Context, e *Event) error {
	return s.repo.Create(ctx, e)
}
