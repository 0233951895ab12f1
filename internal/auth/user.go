// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Password constraints.
const (
	// MinResetPasswordLength is the minimum length of a password set through
	// the reset flow.
	MinResetPasswordLength = 8
	// MaxEmailLength matches the width of users.email.
	MaxEmailLength = 255
	// MaxOrganizationLength matches the width of users.organization.
	MaxOrganizationLength = 255
)

// User is a Credential Store row. PasswordHash and the reset fields never
// leave this package boundary; handlers only see PublicUser.
type User struct {
	ID                   int64
	Email                string
	PasswordHash         string
	Role                 Role
	Organization         *string
	CreatedAt            time.Time
	LastLogin            *time.Time
	PasswordResetToken   *string // SHA-256 hex of the issued token
	PasswordResetExpires *time.Time
}

// PublicUser is the projection of a User that is safe to hand to clients
// and to embed in a session.
type PublicUser struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
}

// UserSummary is the administrative view of a user.
type UserSummary struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Organization string     `json:"organization,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// Public returns the client-safe projection of u.
func (u *User) Public() *PublicUser {
	p := &PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.Organization != nil {
		p.Organization = *u.Organization
	}
	return p
}

// Summary returns the administrative projection of u.
func (u *User) Summary() UserSummary {
	s := UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
	if u.Organization != nil {
		s.Organization = *u.Organization
	}
	return s
}

// HasPendingReset reports whether u holds a reset token that is still valid at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.PasswordResetToken != nil &&
		u.PasswordResetExpires != nil &&
		u.PasswordResetExpires.After(now)
}

// ValidateEmail checks the basic shape of an email address.
// Emails are compared exactly as stored; no case folding is applied.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrValidation, "email is required")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Wrapf(ErrValidation, "email must be at most %d characters", MaxEmailLength)
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrValidation, "email is malformed")
	}
	return nil
}

// UserRepository is the Credential Store.
type UserRepository interface {
	// Create inserts a new user and sets its ID and CreatedAt.
	// Returns ErrConflict if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by exact email. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*User, error)

	// UpdateLastLogin sets last_login for a user.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error

	// UpdatePasswordHash replaces the stored hash without touching reset fields.
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error

	// UpdateRole changes a user's role. Returns ErrNotFound if absent.
	UpdateRole(ctx context.Context, id int64, role Role) error

	// SetResetToken stores a reset token hash and its expiry, replacing any prior pair.
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error

	// GetByResetToken retrieves the user holding tokenHash with an expiry after now.
	// Returns ErrNotFound if no such user exists.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// CompletePasswordReset sets the password hash and clears both reset fields,
	// provided the user still holds tokenHash. Returns ErrNotFound otherwise.
	CompletePasswordReset(ctx context.Context, id int64, tokenHash, passwordHash string) error
}
