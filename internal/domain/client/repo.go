package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Repository interface {
	auth.ClientLoader

	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	// FindByName looks up a client of owner by full name. Used by seeding.
	FindByName(ctx context.Context, userID uuid.UUID, fullName string) (*Client, error)
	// List returns the clients matched by filter, newest first, each with
	// its latest day stats.
	List(ctx context.Context, filter auth.ClientFilter) ([]ListItem, error)

	GetNorms(ctx context.Context, clientID uuid.UUID) (*NutrientNorms, error)
	UpsertNorms(ctx context.Context, clientID uuid.UUID, patch NormsPatch) (*NutrientNorms, error)

	LatestDayStats(ctx context.Context, clientID uuid.UUID) (*DayStats, error)
	UpsertDayStats(ctx context.Context, s *DayStats) error
}
