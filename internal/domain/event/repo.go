package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	// ListByClient returns events in schedule order. limit <= 0 returns all.
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]*Event, error)
	// Window returns events scheduled in [from, to] that are shared or belong
	// to a client matched by filter, in schedule order.
	Window(ctx context.Context, filter auth.ClientFilter, from, to time.Time, limit int) ([]*Event, error)
}
