// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package postgres implements the auth Credential Store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/mindlap/mindlap/internal/auth"
)

// querier is the subset of *pgxpool.Pool used by the repository.
// pgxmock.PgxPoolIface satisfies it for unit tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, password_hash, role, organization, created_at,
		       last_login, password_reset_token, password_reset_expires`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user and fills in its ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, organization)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Organization,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_EXISTS").
				With("email", user.Email).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// List returns all users ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(err)
	}
	return users, nil
}

// UpdateLastLogin records a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return checkUpdate(result, err, "USER_UPDATE_LAST_LOGIN_FAILED", "update last login", id)
}

// UpdatePasswordHash replaces the password hash, leaving reset fields alone.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return checkUpdate(result, err, "USER_UPDATE_PASSWORD_FAILED", "update password hash", id)
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	return checkUpdate(result, err, "USER_UPDATE_ROLE_FAILED", "update role", id)
}

// SetResetToken stores a reset token hash and expiry, overwriting any prior pair.
func (r *UserRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_reset_token = $2, password_reset_expires = $3
		WHERE id = $1
	`, id, tokenHash, expiresAt)
	return checkUpdate(result, err, "USER_SET_RESET_TOKEN_FAILED", "set reset token", id)
}

// GetByResetToken retrieves the user holding tokenHash whose expiry is after now.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > $2
	`, tokenHash, now)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_RESET_TOKEN_FAILED").
			With("operation", "get user by reset token").
			Wrap(err)
	}
	return user, nil
}

// CompletePasswordReset sets the new hash and clears the reset fields in one
// statement, provided the user still holds tokenHash.
func (r *UserRepository) CompletePasswordReset(ctx context.Context, id int64, tokenHash, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $3, password_reset_token = NULL, password_reset_expires = NULL
		WHERE id = $1 AND password_reset_token = $2
	`, id, tokenHash, passwordHash)
	return checkUpdate(result, err, "USER_COMPLETE_RESET_FAILED", "complete password reset", id)
}

func checkUpdate(result pgconn.CommandTag, err error, code, operation string, id int64) error {
	if err != nil {
		return oops.Code(code).
			With("operation", operation).
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Scan errors, pgx.ErrNoRows included, are returned unwrapped for callers to
// handle with context.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user auth.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Organization,
		&user.CreatedAt,
		&user.LastLogin,
		&user.PasswordResetToken,
		&user.PasswordResetExpires,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}

	user.Role = auth.Role(role)
	if !user.Role.Valid() {
		// Corrupt stored data, not a client error: no ErrValidation here.
		return nil, oops.Code("USER_INVALID_ROLE").
			With("id", user.ID).
			With("role", role).
			Errorf("stored role %q is not a known role", role)
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
