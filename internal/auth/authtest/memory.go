// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package authtest provides an in-memory UserRepository for tests.
package authtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/mindlap/mindlap/internal/auth"
)

// MemoryUserRepository is a UserRepository backed by a map. It mirrors the
// constraints of the users table: unique email, paired reset fields.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
	now    func() time.Time
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*auth.User),
		now:   time.Now,
	}
}

// Create implements auth.UserRepository.
func (r *MemoryUserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return oops.Code("USER_CREATE_FAILED").With("email", user.Email).Wrap(auth.ErrConflict)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.now()
	r.users[user.ID] = clone(user)
	return nil
}

// GetByID implements auth.UserRepository.
func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, notFound("id", id)
	}
	return clone(u), nil
}

// GetByEmail implements auth.UserRepository.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, notFound("email", email)
}

// List implements auth.UserRepository.
func (r *MemoryUserRepository) List(_ context.Context) ([]*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*auth.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateLastLogin implements auth.UserRepository.
func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *auth.User) { u.LastLogin = &at })
}

// UpdatePasswordHash implements auth.UserRepository.
func (r *MemoryUserRepository) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	return r.update(id, func(u *auth.User) { u.PasswordHash = passwordHash })
}

// UpdateRole implements auth.UserRepository.
func (r *MemoryUserRepository) UpdateRole(_ context.Context, id int64, role auth.Role) error {
	return r.update(id, func(u *auth.User) { u.Role = role })
}

// SetResetToken implements auth.UserRepository.
func (r *MemoryUserRepository) SetResetToken(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	return r.update(id, func(u *auth.User) {
		u.PasswordResetToken = &tokenHash
		u.PasswordResetExpires = &expiresAt
	})
}

// GetByResetToken implements auth.UserRepository.
func (r *MemoryUserRepository) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash && u.HasPendingReset(now) {
			return clone(u), nil
		}
	}
	return nil, notFound("reset_token", "<redacted>")
}

// CompletePasswordReset implements auth.UserRepository.
func (r *MemoryUserRepository) CompletePasswordReset(_ context.Context, id int64, tokenHash, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash {
		return notFound("id", id)
	}
	u.PasswordHash = passwordHash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

// Snapshot returns a copy of every stored user, ordered by ID.
func (r *MemoryUserRepository) Snapshot() []auth.User {
	users, _ := r.List(context.Background())
	out := make([]auth.User, len(users))
	for i, u := range users {
		out[i] = *u
	}
	return out
}

func (r *MemoryUserRepository) update(id int64, fn func(*auth.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return notFound("id", id)
	}
	fn(u)
	return nil
}

func notFound(key string, value any) error {
	return oops.Code("USER_NOT_FOUND").With(key, value).Wrap(auth.ErrNotFound)
}

func clone(u *auth.User) *auth.User {
	c := *u
	if u.Organization != nil {
		v := *u.Organization
		c.Organization = &v
	}
	if u.LastLogin != nil {
		v := *u.LastLogin
		c.LastLogin = &v
	}
	if u.PasswordResetToken != nil {
		v := *u.PasswordResetToken
		c.PasswordResetToken = &v
	}
	if u.PasswordResetExpires != nil {
		v := *u.PasswordResetExpires
		c.PasswordResetExpires = &v
	}
	return &c
}

var _ auth.UserRepository = (*MemoryUserRepository)(nil)
