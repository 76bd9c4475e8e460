// Package postgres is a database/sql UserProvider backed by PostgreSQL via
// the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	socialauth "github.com/nexfeed/socialauth"
)

// Schema is the table this provider expects. Shipped for migrations tooling
// to pick up; the provider never runs it itself.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE
);`

const uniqueViolation = "23505"

// Provider reads and writes user records through an *sql.DB.
type Provider struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// Open dials PostgreSQL through the pgx stdlib driver and wraps the handle.
func Open(dsn string) (*Provider, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db), nil
}

// Close releases the underlying pool.
func (p *Provider) Close() error {
	return p.db.Close()
}

func (p *Provider) FindByIdentifier(ctx context.Context, identifier string) (*socialauth.UserRecord, error) {
	const q = `SELECT id, username, email, password_hash, role, active
	           FROM users WHERE username = $1 OR email = $1`
	return p.queryOne(ctx, q, identifier)
}

func (p *Provider) FindByID(ctx context.Context, id string) (*socialauth.UserRecord, error) {
	const q = `SELECT id, username, email, password_hash, role, active
	           FROM users WHERE id = $1`
	return p.queryOne(ctx, q, id)
}

func (p *Provider) Create(ctx context.Context, in socialauth.CreateUserInput) (*socialauth.UserRecord, error) {
	const q = `INSERT INTO users (id, username, email, password_hash, role, active)
	           VALUES ($1, $2, $3, $4, $5, TRUE)`

	rec := &socialauth.UserRecord{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Active:       true,
	}

	if _, err := p.db.ExecContext(ctx, q, rec.ID, rec.Username, rec.Email, rec.PasswordHash, rec.Role); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, socialauth.ErrAccountExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return rec, nil
}

func (p *Provider) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash = $1 WHERE id = $2`

	res, err := p.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return socialauth.ErrUserNotFound
	}

	return nil
}

// SetActive flips the account flag without touching credentials.
func (p *Provider) SetActive(ctx context.Context, id string, active bool) error {
	const q = `UPDATE users SET active = $1 WHERE id = $2`

	res, err := p.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return socialauth.ErrUserNotFound
	}

	return nil
}

func (p *Provider) queryOne(ctx context.Context, query, arg string) (*socialauth.UserRecord, error) {
	var rec socialauth.UserRecord

	err := p.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.ID, &rec.Username, &rec.Email, &rec.PasswordHash, &rec.Role, &rec.Active,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, socialauth.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &rec, nil
}
