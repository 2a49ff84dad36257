package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/blobstore"
	"github.com/nutriflow/nutriflow/internal/platform/metrics"
	"github.com/nutriflow/nutriflow/pkg/timeparse"
)

// Transactor runs fn so that every repository call made with the derived
// context shares one transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	tests     TestRepository
	reports   ReportRepository
	catalog   *MarkerCatalog
	clients   auth.ClientLoader
	tx        Transactor
	blobs     blobstore.Store
	maxUpload int64
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(tests TestRepository, reports ReportRepository, catalog *MarkerCatalog, clients auth.ClientLoader, tx Transactor) *Service {
	return &Service{
		tests:   tests,
		reports: reports,
		catalog: catalog,
		clients: clients,
		tx:      tx,
		now:     time.Now,
	}
}

// SetBlobStore enables lab report documents. maxSize <= 0 means unlimited.
func (s *Service) SetBlobStore(store blobstore.Store, maxSize int64) {
	s.blobs = store
	s.maxUpload = maxSize
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) Catalog() *MarkerCatalog {
	return s.catalog
}

func (s *Service) authorize(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) error {
	return auth.AuthorizeClient(ctx, s.clients, user, clientID)
}

// -- Tests --

func (s *Service) ListTests(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, limit, offset int) ([]*LabTest, int, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, 0, err
	}
	return s.tests.ListByClient(ctx, clientID, limit, offset)
}

// RecentTests returns the newest n tests. Callers authorize the client.
func (s *Service) RecentTests(ctx context.Context, clientID uuid.UUID, n int) ([]*LabTest, error) {
	items, _, err := s.tests.ListByClient(ctx, clientID, n, 0)
	return items, err
}

// CreateBatch validates and classifies every item, then inserts all of them
// in one transaction. Nothing is stored when any item is invalid.
func (s *Service) CreateBatch(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, items []BatchItem) ([]*LabTest, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalid("items required")
	}

	tests := make([]*LabTest, 0, len(items))
	for _, item := range items {
		t, err := s.buildTest(ctx, clientID, item)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, t := range tests {
			if err := s.tests.Create(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create lab batch: %w", err)
	}

	for _, t := range tests {
		s.metrics.ObserveLabTest(string(t.Status))
	}
	return tests, nil
}

func (s *Service) buildTest(ctx context.Context, clientID uuid.UUID, item BatchItem) (*LabTest, error) {
	code := NormalizeMarkerCode(item.MarkerCode)
	if code == "" {
		return nil, invalid("markerCode is required")
	}
	if item.Value == nil {
		return nil, invalid("Invalid value for marker %s: must be number", code)
	}

	ref, err := s.catalog.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	status, err := ClassifyLabValue(*item.Value, ref.Range())
	if err != nil {
		return nil, invalid("Invalid value for marker %s: must be number", code)
	}

	takenAt := s.now().UTC()
	if item.TakenAt != "" {
		takenAt, err = timeparse.Parse(item.TakenAt)
		if err != nil {
			return nil, invalid("Invalid takenAt for marker %s: must be ISO date", code)
		}
	}

	unit := item.Unit
	if unit == "" && ref != nil {
		unit = ref.Unit
	}
	typ := item.Type
	if typ == "" {
		typ = defaultTestType
	}

	return &LabTest{
		ID:       uuid.New(),
		ClientID: clientID,
		TakenAt:  takenAt,
		Type:     typ,
		Marker:   code,
		Value:    *item.Value,
		Unit:     unit,
		Status:   status,
	}, nil
}

// -- Markers --

func (s *Service) Markers(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) ([]MarkerInfo, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	codes, err := s.tests.DistinctMarkers(ctx, clientID)
	if err != nil {
		return nil, err
	}
	refs, err := s.catalog.LookupMany(ctx, codes)
	if err != nil {
		return nil, err
	}

	out := make([]MarkerInfo, 0, len(codes))
	for _, code := range codes {
		info := MarkerInfo{Marker: code}
		if ref, ok := refs[code]; ok {
			info.Name = &ref.Name
			info.Unit = &ref.Unit
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Service) Series(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, marker string) ([]SeriesPoint, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	code := NormalizeMarkerCode(marker)
	if code == "" {
		return nil, invalid(`Query parameter "marker" is required`)
	}

	tests, err := s.tests.Series(ctx, clientID, code)
	if err != nil {
		return nil, err
	}
	out := make([]SeriesPoint, 0, len(tests))
	for _, t := range tests {
		out = append(out, SeriesPoint{TakenAt: t.TakenAt, Value: t.Value, Status: t.Status})
	}
	return out, nil
}

// Summary reports, per marker, the latest reading, the trend over the whole
// history and the change from the previous reading.
func (s *Service) Summary(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) ([]MarkerSummary, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	history, err := s.tests.History(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, history)
}

func (s *Service) summarize(ctx context.Context, history []*LabTest) ([]MarkerSummary, error) {
	var order []string
	byMarker := make(map[string][]*LabTest)
	for _, t := range history {
		if _, ok := byMarker[t.Marker]; !ok {
			order = append(order, t.Marker)
		}
		byMarker[t.Marker] = append(byMarker[t.Marker], t)
	}

	refs, err := s.catalog.LookupMany(ctx, order)
	if err != nil {
		return nil, err
	}

	out := make([]MarkerSummary, 0, len(order))
	for _, code := range order {
		entries := byMarker[code]
		readings := make([]LabReading, len(entries))
		for i, t := range entries {
			readings[i] = t.Reading()
		}

		last := entries[len(entries)-1]
		ref := refs[code]
		sum := MarkerSummary{
			Marker:      code,
			LastValue:   last.Value,
			Unit:        last.Unit,
			Status:      last.Status,
			LastTakenAt: last.TakenAt,
			Trend:       ComputeTrend(readings),
		}
		if ref != nil {
			sum.Name = &ref.Name
			if sum.Unit == "" {
				sum.Unit = ref.Unit
			}
		}
		if len(entries) > 1 {
			d := round2(last.Value - entries[len(entries)-2].Value)
			sum.Delta = &d
		}
		out = append(out, sum)
	}
	return out, nil
}
