package menu

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// -- Template Repository --

type templateRepoPG struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const templateCols = `id, name, description, focus, created_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Focus, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepoPG) Create(ctx context.Context, t *Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO menu_template (id, name, description, focus)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.Name, t.Description, t.Focus,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert menu template: %w", err)
	}
	return nil
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM menu_template WHERE id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return t, nil
}

func (r *templateRepoPG) GetByName(ctx context.Context, name string) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM menu_template WHERE name = $1 ORDER BY created_at LIMIT 1`, name))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return t, nil
}

func (r *templateRepoPG) List(ctx context.Context) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM menu_template ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list menu templates: %w", err)
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// -- Assignment Repository --

type assignmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const assignmentSelect = `
	SELECT a.id, a.client_id, a.menu_template_id, a.start_date, a.end_date, a.is_active,
		t.id, t.name, t.description, t.focus, t.created_at
	FROM menu_assignment a
	JOIN menu_template t ON t.id = a.menu_template_id`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var t Template
	if err := row.Scan(&a.ID, &a.ClientID, &a.MenuTemplateID, &a.StartDate, &a.EndDate, &a.IsActive,
		&t.ID, &t.Name, &t.Description, &t.Focus, &t.CreatedAt); err != nil {
		return nil, err
	}
	a.MenuTemplate = &t
	return &a, nil
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO menu_assignment (id, client_id, menu_template_id, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ClientID, a.MenuTemplateID, a.StartDate, a.EndDate, a.IsActive)
	if err != nil {
		return fmt.Errorf("insert menu assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepoPG) DeactivateAll(ctx context.Context, clientID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE menu_assignment SET is_active = FALSE WHERE client_id = $1 AND is_active`, clientID)
	if err != nil {
		return fmt.Errorf("deactivate menu assignments: %w", err)
	}
	return nil
}

func (r *assignmentRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Assignment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		assignmentSelect+` WHERE a.client_id = $1 ORDER BY a.start_date DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list menu assignments: %w", err)
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *assignmentRepoPG) Active(ctx context.Context, clientID uuid.UUID) (*Assignment, error) {
	a, err := scanAssignment(r.conn(ctx).QueryRow(ctx,
		assignmentSelect+` WHERE a.client_id = $1 AND a.is_active ORDER BY a.start_date DESC LIMIT 1`, clientID))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return a, nil
}
