package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const planCols = `id, name, max_clients, features, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.MaxClients, &p.Features, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, db.NotFound(err)
	}
	return &p, nil
}

func (r *repoPG) FindByName(ctx context.Context, name string) (*Plan, error) {
	return scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM billing_plan WHERE name = $1 ORDER BY created_at ASC LIMIT 1`, name))
}

func (r *repoPG) Oldest(ctx context.Context) (*Plan, error) {
	return scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM billing_plan ORDER BY created_at ASC LIMIT 1`))
}

func (r *repoPG) Upsert(ctx context.Context, p *Plan) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO billing_plan (id, name, max_clients, features)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			max_clients = EXCLUDED.max_clients,
			features = EXCLUDED.features,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.MaxClients, p.Features,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert billing plan: %w", err)
	}
	return nil
}
