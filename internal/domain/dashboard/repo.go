package dashboard

import (
	"context"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

// Repository runs the dashboard aggregates over the clients a filter selects.
type Repository interface {
	ClientRisks(ctx context.Context, filter auth.ClientFilter) ([]ClientRisk, error)
	ActiveMenuClients(ctx context.Context, filter auth.ClientFilter) (int, error)
	LowMarkerClients(ctx context.Context, filter auth.ClientFilter, markers []string) (int, error)
}
