// Package repository stores user accounts in PostgreSQL.
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
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already exists")
)

const uniqueViolation = "23505"

// User is a stored account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	LastLogin    *time.Time
	CreatedBy    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries optional field changes. Nil fields are left untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	IsActive  *bool
}

// UserRepository is the persistence used by the auth service.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByLogin(ctx context.Context, login string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role string) (int, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, role, is_active, last_login, created_by, created_at, updated_at`

const createUserQuery = `
	INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, is_active, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + userColumns

const getUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const getUserByLoginQuery = `
	SELECT ` + userColumns + `
	FROM users
	WHERE username = $1 OR lower(email) = lower($1)
	ORDER BY (username = $1) DESC
	LIMIT 1`

const listUsersQuery = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`

const updateUserQuery = `
	UPDATE users SET
		first_name = COALESCE($2, first_name),
		last_name = COALESCE($3, last_name),
		email = COALESCE($4, email),
		role = COALESCE($5, role),
		is_active = COALESCE($6, is_active),
		updated_at = now()
	WHERE id = $1
	RETURNING ` + userColumns

const updatePasswordQuery = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

const touchLastLoginQuery = `UPDATE users SET last_login = $2 WHERE id = $1`

const deleteUserQuery = `DELETE FROM users WHERE id = $1`

const countByRoleQuery = `SELECT COUNT(*)::int FROM users WHERE role = $1 AND is_active`

func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, createUserQuery,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsActive, u.CreatedBy,
	)
	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicate
	}
	return created, err
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, getUserByIDQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetUserByLogin matches the username exactly or the email case-insensitively.
func (r *Repository) GetUserByLogin(ctx context.Context, login string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, getUserByLoginQuery, login))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, listUsersQuery)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
}

func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, updateUserQuery, id, upd.FirstName, upd.LastName, upd.Email, upd.Role, upd.IsActive))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return User{}, ErrNotFound
	case isUniqueViolation(err):
		return User{}, ErrDuplicate
	}
	return u, err
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, updatePasswordQuery, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, touchLastLoginQuery, id, at)
	return err
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRole counts active users holding role.
func (r *Repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, countByRoleQuery, role).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedBy,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ UserRepository = (*Repository)(nil)
