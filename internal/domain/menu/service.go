package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
	"github.com/nutriflow/nutriflow/pkg/timeparse"
)

var (
	ErrTemplateRequired = errors.New("menuTemplateId is required")
	ErrTemplateNotFound = errors.New("menu template not found")
	ErrInvalidStartDate = errors.New("Invalid startDate")
	ErrInvalidEndDate   = errors.New("Invalid endDate")
	ErrEndBeforeStart   = errors.New("endDate must not be before startDate")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	templates   TemplateRepository
	assignments AssignmentRepository
	clients     auth.ClientLoader
	tx          Transactor
	now         func() time.Time
}

func NewService(templates TemplateRepository, assignments AssignmentRepository, clients auth.ClientLoader, tx Transactor) *Service {
	return &Service{
		templates:   templates,
		assignments: assignments,
		clients:     clients,
		tx:          tx,
		now:         time.Now,
	}
}

func (s *Service) ListTemplates(ctx context.Context) ([]*Template, error) {
	return s.templates.List(ctx)
}

// EnsureTemplate returns the template with t.Name, creating it when missing.
func (s *Service) EnsureTemplate(ctx context.Context, t *Template) (*Template, error) {
	existing, err := s.templates.GetByName(ctx, t.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) ClientMenu(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) (*ClientMenu, error) {
	if err := auth.AuthorizeClient(ctx, s.clients, user, clientID); err != nil {
		return nil, err
	}
	all, err := s.assignments.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	out := &ClientMenu{Active: []*Assignment{}, Archived: []*Assignment{}}
	for _, a := range all {
		if a.IsActive {
			out.Active = append(out.Active, a)
		} else {
			out.Archived = append(out.Archived, a)
		}
	}
	return out, nil
}

// ActiveAssignment returns the client's current assignment, or nil. Callers
// authorize the client.
func (s *Service) ActiveAssignment(ctx context.Context, clientID uuid.UUID) (*Assignment, error) {
	a, err := s.assignments.Active(ctx, clientID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// Assign makes the template the client's only active menu.
func (s *Service) Assign(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, req AssignRequest) (*Assignment, error) {
	if req.MenuTemplateID == "" {
		return nil, ErrTemplateRequired
	}
	if err := auth.AuthorizeClient(ctx, s.clients, user, clientID); err != nil {
		return nil, err
	}

	templateID, err := uuid.Parse(req.MenuTemplateID)
	if err != nil {
		return nil, ErrTemplateNotFound
	}
	tmpl, err := s.templates.GetByID(ctx, templateID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	a := &Assignment{
		ID:             uuid.New(),
		ClientID:       clientID,
		MenuTemplateID: tmpl.ID,
		StartDate:      s.now().UTC(),
		IsActive:       true,
		MenuTemplate:   tmpl,
	}
	if req.StartDate != "" {
		if a.StartDate, err = timeparse.Parse(req.StartDate); err != nil {
			return nil, ErrInvalidStartDate
		}
	}
	if req.EndDate != "" {
		end, err := timeparse.Parse(req.EndDate)
		if err != nil {
			return nil, ErrInvalidEndDate
		}
		if end.Before(a.StartDate) {
			return nil, ErrEndBeforeStart
		}
		a.EndDate = &end
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.assignments.DeactivateAll(ctx, clientID); err != nil {
			return err
		}
		return s.assignments.Create(ctx, a)
	})
	if err != nil {
		return nil, fmt.Errorf("assign menu: %w", err)
	}
	return a, nil
}

// IsValidation reports whether err is a client input error of this package.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTemplateRequired) ||
		errors.Is(err, ErrInvalidStartDate) ||
		errors.Is(err, ErrInvalidEndDate) ||
		errors.Is(err, ErrEndBeforeStart)
}
