// Package repository stores operator-registered forms in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("form not found")

// Form is a named form registered for a client.
type Form struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	ClientPublicID string
	FormName       string
	FormIdentifier string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FormUpdate carries optional changes. Nil fields are left untouched.
type FormUpdate struct {
	FormName       *string
	FormIdentifier *string
}

type FormRepository interface {
	Create(ctx context.Context, f Form) (Form, error)
	GetByID(ctx context.Context, id uuid.UUID) (Form, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Form, error)
	Update(ctx context.Context, id uuid.UUID, upd FormUpdate) (Form, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const formColumns = `f.id, f.client_id, c.public_id, f.form_name, COALESCE(f.form_identifier, ''), f.created_at, f.updated_at`

const createFormQuery = `
	WITH f AS (
		INSERT INTO forms (id, client_id, form_name, form_identifier)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	)
	SELECT ` + formColumns + `
	FROM f JOIN clients c ON c.id = f.client_id`

const getFormQuery = `
	SELECT ` + formColumns + `
	FROM forms f JOIN clients c ON c.id = f.client_id
	WHERE f.id = $1`

const listFormsQuery = `
	SELECT ` + formColumns + `
	FROM forms f JOIN clients c ON c.id = f.client_id
	WHERE f.client_id = $1
	ORDER BY f.created_at, f.form_name`

const updateFormQuery = `
	UPDATE forms f SET
		form_name       = COALESCE($2, f.form_name),
		form_identifier = COALESCE($3, f.form_identifier),
		updated_at      = now()
	FROM clients c
	WHERE f.id = $1 AND c.id = f.client_id
	RETURNING ` + formColumns

const deleteFormQuery = `DELETE FROM forms WHERE id = $1`

func (r *Repository) Create(ctx context.Context, f Form) (Form, error) {
	return scanForm(r.pool.QueryRow(ctx, createFormQuery, f.ID, f.ClientID, f.FormName, f.FormIdentifier))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Form, error) {
	f, err := scanForm(r.pool.QueryRow(ctx, getFormQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Form{}, ErrNotFound
	}
	return f, err
}

func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Form, error) {
	rows, err := r.pool.Query(ctx, listFormsQuery, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Form, error) {
		return scanForm(row)
	})
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, upd FormUpdate) (Form, error) {
	f, err := scanForm(r.pool.QueryRow(ctx, updateFormQuery, id, upd.FormName, upd.FormIdentifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return Form{}, ErrNotFound
	}
	return f, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteFormQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.ClientID, &f.ClientPublicID, &f.FormName, &f.FormIdentifier, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

var _ FormRepository = (*Repository)(nil)
