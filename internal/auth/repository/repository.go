// Package repository provides PostgreSQL access for user accounts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supaco_backend/platform/apperr"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// User is a stored account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repository defines the account persistence operations.
type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Repo implements Repository over a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, email, name, password_hash, created_at, updated_at`

const createUserQuery = `
	INSERT INTO users (name, email, password_hash)
	VALUES ($1, lower($2), $3)
	RETURNING ` + userColumns

const getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

const getUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (r *Repo) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	var user User
	if err := pgxscan.Get(ctx, r.pool, &user, createUserQuery, name, email, passwordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, apperr.Conflict("email already registered")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	if err := pgxscan.Get(ctx, r.pool, &user, getUserByEmailQuery, email); err != nil {
		if pgxscan.NotFound(err) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *Repo) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var user User
	if err := pgxscan.Get(ctx, r.pool, &user, getUserByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}
