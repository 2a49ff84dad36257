package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const clientCols = `id, user_id, tenant_id, full_name, status, goal, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var status string
	if err := row.Scan(&c.ID, &c.UserID, &c.TenantID, &c.FullName, &status, &c.Goal, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO client (id, user_id, tenant_id, full_name, status, goal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.TenantID, c.FullName, string(c.Status), c.Goal,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, err := scanClient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+clientCols+` FROM client WHERE id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return c, nil
}

func (r *repoPG) LoadClientRecord(ctx context.Context, id uuid.UUID) (auth.ClientRecord, error) {
	var rec auth.ClientRecord
	var clientID, userID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, user_id, tenant_id FROM client WHERE id = $1`, id,
	).Scan(&clientID, &userID, &rec.TenantID)
	if err != nil {
		return auth.ClientRecord{}, db.NotFound(err)
	}
	rec.ID = clientID.String()
	rec.UserID = userID.String()
	return rec, nil
}

func (r *repoPG) FindByName(ctx context.Context, userID uuid.UUID, fullName string) (*Client, error) {
	c, err := scanClient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+clientCols+` FROM client WHERE user_id = $1 AND full_name = $2 LIMIT 1`, userID, fullName))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return c, nil
}

const dayStatsCols = `id, client_id, date, kcal, protein, fat, carbs, fiber,
	kcal_coverage, protein_coverage, fiber_coverage, risk_flags`

func (r *repoPG) List(ctx context.Context, filter auth.ClientFilter) ([]ListItem, error) {
	q := db.NewSelectQuery(`client c LEFT JOIN LATERAL (
			SELECT `+dayStatsCols+` FROM day_stats d
			WHERE d.client_id = c.id ORDER BY d.date DESC LIMIT 1
		) s ON TRUE`,
		`c.id, c.user_id, c.tenant_id, c.full_name, c.status, c.goal, c.created_at, c.updated_at,
		s.id, s.date, s.kcal, s.protein, s.fat, s.carbs, s.fiber,
		s.kcal_coverage, s.protein_coverage, s.fiber_coverage, s.risk_flags`)
	filter.Apply(q, "c.")
	q.OrderBy("c.created_at DESC, c.id")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var c Client
		var status string
		var statsID *uuid.UUID
		var s DayStats
		var date pgtype.Date
		var kcal, protein, fat, carbs, fiber *float64
		if err := rows.Scan(&c.ID, &c.UserID, &c.TenantID, &c.FullName, &status, &c.Goal, &c.CreatedAt, &c.UpdatedAt,
			&statsID, &date, &kcal, &protein, &fat, &carbs, &fiber,
			&s.KcalCoverage, &s.ProteinCoverage, &s.FiberCoverage, &s.RiskFlags); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.Status = Status(status)
		item := ListItem{Client: &c}
		if statsID != nil {
			s.ID = *statsID
			s.ClientID = c.ID
			s.Date = date.Time
			s.Kcal, s.Protein, s.Fat, s.Carbs, s.Fiber = deref(kcal), deref(protein), deref(fat), deref(carbs), deref(fiber)
			item.Latest = &s
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

const normsCols = `client_id, kcal_min, kcal_max, protein_grams, fat_grams_min, fat_grams_max,
	carbs_grams_min, carbs_grams_max, fiber_grams, updated_at`

func scanNorms(row pgx.Row) (*NutrientNorms, error) {
	var n NutrientNorms
	if err := row.Scan(&n.ClientID, &n.KcalMin, &n.KcalMax, &n.ProteinGrams, &n.FatGramsMin, &n.FatGramsMax,
		&n.CarbsGramsMin, &n.CarbsGramsMax, &n.FiberGrams, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) GetNorms(ctx context.Context, clientID uuid.UUID) (*NutrientNorms, error) {
	n, err := scanNorms(r.conn(ctx).QueryRow(ctx,
		`SELECT `+normsCols+` FROM nutrient_norms WHERE client_id = $1`, clientID))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return n, nil
}

// UpsertNorms writes only the columns named in patch.
func (r *repoPG) UpsertNorms(ctx context.Context, clientID uuid.UUID, patch NormsPatch) (*NutrientNorms, error) {
	cols := []string{"client_id"}
	placeholders := []string{"$1"}
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{clientID}
	for i, v := range patch {
		cols = append(cols, v.Column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", v.Column, v.Column))
		args = append(args, v.Value)
	}

	sql := fmt.Sprintf(`INSERT INTO nutrient_norms (%s) VALUES (%s)
		ON CONFLICT (client_id) DO UPDATE SET %s
		RETURNING %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "), normsCols)

	n, err := scanNorms(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert norms: %w", err)
	}
	return n, nil
}

func scanDayStats(row pgx.Row) (*DayStats, error) {
	var s DayStats
	var date pgtype.Date
	if err := row.Scan(&s.ID, &s.ClientID, &date, &s.Kcal, &s.Protein, &s.Fat, &s.Carbs, &s.Fiber,
		&s.KcalCoverage, &s.ProteinCoverage, &s.FiberCoverage, &s.RiskFlags); err != nil {
		return nil, err
	}
	s.Date = date.Time
	return &s, nil
}

func (r *repoPG) LatestDayStats(ctx context.Context, clientID uuid.UUID) (*DayStats, error) {
	s, err := scanDayStats(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dayStatsCols+` FROM day_stats WHERE client_id = $1 ORDER BY date DESC LIMIT 1`, clientID))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return s, nil
}

func (r *repoPG) UpsertDayStats(ctx context.Context, s *DayStats) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO day_stats (`+dayStatsCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (client_id, date) DO UPDATE SET
			kcal = EXCLUDED.kcal, protein = EXCLUDED.protein, fat = EXCLUDED.fat,
			carbs = EXCLUDED.carbs, fiber = EXCLUDED.fiber,
			kcal_coverage = EXCLUDED.kcal_coverage, protein_coverage = EXCLUDED.protein_coverage,
			fiber_coverage = EXCLUDED.fiber_coverage, risk_flags = EXCLUDED.risk_flags
		RETURNING id`,
		s.ID, s.ClientID, s.Date, s.Kcal, s.Protein, s.Fat, s.Carbs, s.Fiber,
		s.KcalCoverage, s.ProteinCoverage, s.FiberCoverage, s.RiskFlags,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("upsert day stats: %w", err)
	}
	return nil
}
