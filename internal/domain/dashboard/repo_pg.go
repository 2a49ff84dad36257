package dashboard

import (
	"context"
	"fmt"

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

func (r *repoPG) ClientRisks(ctx context.Context, filter auth.ClientFilter) ([]ClientRisk, error) {
	q := db.NewSelectQuery(`client c
		LEFT JOIN LATERAL (
			SELECT d.risk_flags FROM day_stats d
			WHERE d.client_id = c.id
			ORDER BY d.date DESC LIMIT 1
		) ds ON TRUE`,
		`c.status = 'ACTIVE', ds.risk_flags IS NOT NULL, COALESCE(ds.risk_flags, '{}')`)
	filter.Apply(q, "c.")

	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query client risks: %w", err)
	}
	defer rows.Close()

	var out []ClientRisk
	for rows.Next() {
		var cr ClientRisk
		if err := rows.Scan(&cr.Active, &cr.HasStats, &cr.Flags); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *repoPG) count(ctx context.Context, q *db.SelectQuery) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, q.SQL(), q.Args()...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *repoPG) ActiveMenuClients(ctx context.Context, filter auth.ClientFilter) (int, error) {
	q := db.NewSelectQuery("menu_assignment a JOIN client c ON c.id = a.client_id", "COUNT(DISTINCT a.client_id)")
	q.Add("a.is_active")
	filter.Apply(q, "c.")
	n, err := r.count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count active menus: %w", err)
	}
	return n, nil
}

func (r *repoPG) LowMarkerClients(ctx context.Context, filter auth.ClientFilter, markers []string) (int, error) {
	q := db.NewSelectQuery("lab_test t JOIN client c ON c.id = t.client_id", "COUNT(DISTINCT t.client_id)")
	q.Add("t.status = 'LOW'")
	q.Add(fmt.Sprintf("t.marker = ANY($%d)", q.Idx()), markers)
	filter.Apply(q, "c.")
	n, err := r.count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count low marker clients: %w", err)
	}
	return n, nil
}
