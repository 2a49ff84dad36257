package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const eventCols = `id, client_id, title, description, type, channel, scheduled_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	if err := row.Scan(&e.ID, &e.ClientID, &e.Title, &e.Description, &e.Type, &e.Channel, &e.ScheduledAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO event (`+eventCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ClientID, e.Title, e.Description, e.Type, e.Channel, e.ScheduledAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]*Event, error) {
	q := db.NewSelectQuery("event", eventCols)
	q.AddEq("client_id", clientID)
	q.OrderBy("scheduled_at ASC, id")
	if limit > 0 {
		return r.query(ctx, q.DataSQL(), q.DataArgs(limit, 0)...)
	}
	return r.query(ctx, q.SQL(), q.Args()...)
}

func (r *repoPG) Window(ctx context.Context, filter auth.ClientFilter, from, to time.Time, limit int) ([]*Event, error) {
	q := db.NewSelectQuery("event", eventCols)
	q.Add(fmt.Sprintf("scheduled_at >= $%d", q.Idx()), from)
	q.Add(fmt.Sprintf("scheduled_at <= $%d", q.Idx()), to)

	clause, args := filter.Clause("c.user_id", "c.tenant_id", q.Idx())
	q.Add("(client_id IS NULL OR client_id IN (SELECT c.id FROM client c WHERE "+clause+"))", args...)
	q.OrderBy("scheduled_at ASC, id")

	return r.query(ctx, q.DataSQL(), q.DataArgs(limit, 0)...)
}
