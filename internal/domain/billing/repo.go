package billing

import "context"

type Repository interface {
	// FindByName returns the oldest plan with name, or db.ErrNotFound.
	FindByName(ctx context.Context, name string) (*Plan, error)
	// Oldest returns the first plan created, or db.ErrNotFound.
	Oldest(ctx context.Context) (*Plan, error)
	Upsert(ctx context.Context, p *Plan) error
}
