// Package repository stores tenants (clients) in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("client not found")
	// ErrPublicIDTaken is returned when the generated public id collides.
	ErrPublicIDTaken = errors.New("public id already in use")
)

const uniqueViolation = "23505"

// Client is a tenant with its derived counters.
type Client struct {
	ID               uuid.UUID
	PublicID         string
	Name             string
	Domain           string
	Industry         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	FormsCount       int
	SubmissionsCount int
}

// ClientRepository is the persistence used by the clients service.
type ClientRepository interface {
	Create(ctx context.Context, c Client) (Client, error)
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
	GetByPublicID(ctx context.Context, publicID string) (Client, error)
	List(ctx context.Context, industry *string) ([]Client, error)
	Industries(ctx context.Context) ([]string, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const createClientQuery = `
	INSERT INTO clients (id, public_id, name, domain, industry)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at`

const publicIDExistsQuery = `SELECT EXISTS (SELECT 1 FROM clients WHERE public_id = $1)`

const clientSelect = `
	SELECT c.id, c.public_id, c.name, c.domain, c.industry, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM forms f WHERE f.client_id = c.id)::int AS forms_count,
		(SELECT COUNT(*) FROM submissions s WHERE s.client_id = c.id)::int AS submissions_count
	FROM clients c`

const getClientByPublicIDQuery = clientSelect + `
	WHERE c.public_id = $1`

const listClientsQuery = clientSelect + `
	WHERE ($1::text IS NULL OR c.industry = $1)
	ORDER BY c.created_at, c.name`

const industriesQuery = `
	SELECT DISTINCT industry
	FROM clients
	WHERE industry IS NOT NULL AND industry <> ''
	ORDER BY industry`

// Create inserts c. A public id collision maps to ErrPublicIDTaken.
func (r *Repository) Create(ctx context.Context, c Client) (Client, error) {
	err := r.pool.QueryRow(ctx, createClientQuery, c.ID, c.PublicID, c.Name, c.Domain, c.Industry).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Client{}, ErrPublicIDTaken
		}
		return Client{}, err
	}
	return c, nil
}

func (r *Repository) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, publicIDExistsQuery, publicID).Scan(&exists)
	return exists, err
}

func (r *Repository) GetByPublicID(ctx context.Context, publicID string) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, getClientByPublicIDQuery, publicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return c, err
}

// List returns every client, optionally restricted to one industry.
func (r *Repository) List(ctx context.Context, industry *string) ([]Client, error) {
	rows, err := r.pool.Query(ctx, listClientsQuery, industry)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Client, error) {
		return scanClient(row)
	})
}

func (r *Repository) Industries(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, industriesQuery)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.PublicID,
		&c.Name,
		&c.Domain,
		&c.Industry,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.FormsCount,
		&c.SubmissionsCount,
	)
	return c, err
}

var _ ClientRepository = (*Repository)(nil)
