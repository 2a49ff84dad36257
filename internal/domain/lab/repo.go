package lab

import (
	"context"

	"github.com/google/uuid"
)

type TestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	// ListByClient returns a page of tests, newest first.
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*LabTest, int, error)
	// History returns every test of the client, oldest first.
	History(ctx context.Context, clientID uuid.UUID) ([]*LabTest, error)
	// Series returns the tests of one marker, oldest first.
	Series(ctx context.Context, clientID uuid.UUID, marker string) ([]*LabTest, error)
	// DistinctMarkers returns marker codes in alphabetical order.
	DistinctMarkers(ctx context.Context, clientID uuid.UUID) ([]string, error)
}

type MarkerRepository interface {
	Get(ctx context.Context, code string) (*MarkerRef, error)
	List(ctx context.Context) ([]*MarkerRef, error)
	Upsert(ctx context.Context, m *MarkerRef) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*LabReport, error)
	Get(ctx context.Context, clientID, id uuid.UUID) (*LabReport, error)
}
