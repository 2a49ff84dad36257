package lab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// -- Lab Test Repository --

type testRepoPG struct {
	pool *pgxpool.Pool
}

func NewTestRepo(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

func (r *testRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const testCols = `id, client_id, taken_at, type, marker, value, unit, status`

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	var status string
	if err := row.Scan(&t.ID, &t.ClientID, &t.TakenAt, &t.Type, &t.Marker, &t.Value, &t.Unit, &status); err != nil {
		return nil, err
	}
	t.Status = LabStatus(status)
	return &t, nil
}

func collectTests(rows pgx.Rows) ([]*LabTest, error) {
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *testRepoPG) Create(ctx context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_test (`+testCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.ClientID, t.TakenAt, t.Type, t.Marker, t.Value, t.Unit, string(t.Status))
	if err != nil {
		return fmt.Errorf("insert lab test: %w", err)
	}
	return nil
}

func (r *testRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*LabTest, int, error) {
	q := db.NewSelectQuery("lab_test", testCols)
	q.AddEq("client_id", clientID)
	q.OrderBy("taken_at DESC, id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lab tests: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lab tests: %w", err)
	}
	items, err := collectTests(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan lab tests: %w", err)
	}
	return items, total, nil
}

func (r *testRepoPG) History(ctx context.Context, clientID uuid.UUID) ([]*LabTest, error) {
	q := db.NewSelectQuery("lab_test", testCols)
	q.AddEq("client_id", clientID)
	q.OrderBy("taken_at ASC, id")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("lab history: %w", err)
	}
	return collectTests(rows)
}

func (r *testRepoPG) Series(ctx context.Context, clientID uuid.UUID, marker string) ([]*LabTest, error) {
	q := db.NewSelectQuery("lab_test", testCols)
	q.AddEq("client_id", clientID)
	q.AddEq("marker", marker)
	q.OrderBy("taken_at ASC, id")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("lab series: %w", err)
	}
	return collectTests(rows)
}

func (r *testRepoPG) DistinctMarkers(ctx context.Context, clientID uuid.UUID) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT DISTINCT marker FROM lab_test WHERE client_id = $1 ORDER BY marker`, clientID)
	if err != nil {
		return nil, fmt.Errorf("distinct markers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// -- Marker Reference Repository --

type markerRepoPG struct {
	pool *pgxpool.Pool
}

func NewMarkerRepo(pool *pgxpool.Pool) MarkerRepository {
	return &markerRepoPG{pool: pool}
}

func (r *markerRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const markerCols = `code, name, unit, low, high, comment`

func scanMarker(row pgx.Row) (*MarkerRef, error) {
	var m MarkerRef
	if err := row.Scan(&m.Code, &m.Name, &m.Unit, &m.Low, &m.High, &m.Comment); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *markerRepoPG) Get(ctx context.Context, code string) (*MarkerRef, error) {
	m, err := scanMarker(r.conn(ctx).QueryRow(ctx,
		`SELECT `+markerCols+` FROM marker_ref WHERE code = $1`, code))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return m, nil
}

func (r *markerRepoPG) List(ctx context.Context) ([]*MarkerRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+markerCols+` FROM marker_ref ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list marker refs: %w", err)
	}
	defer rows.Close()
	var items []*MarkerRef
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *markerRepoPG) Upsert(ctx context.Context, m *MarkerRef) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO marker_ref (`+markerCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name, unit = EXCLUDED.unit,
			low = EXCLUDED.low, high = EXCLUDED.high, comment = EXCLUDED.comment`,
		m.Code, m.Name, m.Unit, m.Low, m.High, m.Comment)
	if err != nil {
		return fmt.Errorf("upsert marker ref %s: %w", m.Code, err)
	}
	return nil
}

// -- Lab Report Repository --

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const reportCols = `id, client_id, file_name, content_type, size, sha256, blob_key, uploaded_by, created_at`

func scanReport(row pgx.Row) (*LabReport, error) {
	var rep LabReport
	if err := row.Scan(&rep.ID, &rep.ClientID, &rep.FileName, &rep.ContentType, &rep.Size,
		&rep.SHA256, &rep.BlobKey, &rep.UploadedBy, &rep.CreatedAt); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *LabReport) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_report (id, client_id, file_name, content_type, size, sha256, blob_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rep.ID, rep.ClientID, rep.FileName, rep.ContentType, rep.Size, rep.SHA256, rep.BlobKey, rep.UploadedBy,
	).Scan(&rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lab report: %w", err)
	}
	return nil
}

func (r *reportRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*LabReport, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM lab_report WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list lab reports: %w", err)
	}
	defer rows.Close()
	var items []*LabReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}

func (r *reportRepoPG) Get(ctx context.Context, clientID, id uuid.UUID) (*LabReport, error) {
	rep, err := scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM lab_report WHERE client_id = $1 AND id = $2`, clientID, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return rep, nil
}
