package menu

import (
	"context"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	GetByName(ctx context.Context, name string) (*Template, error)
	// List returns templates newest first.
	List(ctx context.Context) ([]*Template, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	DeactivateAll(ctx context.Context, clientID uuid.UUID) error
	// ListByClient returns assignments with their templates, newest start first.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Assignment, error)
	// Active returns the latest active assignment or db.ErrNotFound.
	Active(ctx context.Context, clientID uuid.UUID) (*Assignment, error)
}
