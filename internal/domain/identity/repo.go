package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Upsert inserts u or updates the user with the same email, filling in u.ID.
	Upsert(ctx context.Context, u *User) error
}
