// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when an email is unknown so that the
// response time does not reveal whether the account exists. It never matches.
//
//nolint:gosec // G101: intentionally fake hash for timing equalisation, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// organizationPolicy strips all markup from the free-text organization field.
var organizationPolicy = bluemonday.StrictPolicy()

// Authenticator verifies credentials and manages user records.
type Authenticator struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(users UserRepository, hasher PasswordHasher, opts ...Option) (*Authenticator, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	o := applyOptions(opts)
	return &Authenticator{
		users:  users,
		hasher: hasher,
		logger: o.logger,
		now:    o.now,
	}, nil
}

// CreateUser registers a new account. An empty role defaults to RoleRegular;
// only RegistrationRoles are accepted.
func (a *Authenticator) CreateUser(ctx context.Context, email, password string, role Role, organization string) (*PublicUser, error) {
	if role == "" {
		role = RoleRegular
	}
	if err := ValidateRegistrationRole(role); err != nil {
		return nil, err
	}
	return a.createUser(ctx, email, password, role, organization)
}

// CreateSuperuser provisions a superuser account outside the registration
// path. Used by administrative tooling.
func (a *Authenticator) CreateSuperuser(ctx context.Context, email, password, organization string) (*PublicUser, error) {
	return a.createUser(ctx, email, password, RoleSuperuser, organization)
}

func (a *Authenticator) createUser(ctx context.Context, email, password string, role Role, organization string) (*PublicUser, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrValidation, "password is required")
	}

	org, err := normalizeOrganization(organization)
	if err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_CREATE_USER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Organization: org,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			// Rebuilt on the sentinel so AUTH_EMAIL_TAKEN stays the deepest code.
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("email", email).
				Wrapf(ErrConflict, "email %q is already registered", email)
		}
		return nil, oops.Code("AUTH_CREATE_USER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	return user.Public(), nil
}

// Authenticate verifies an email/password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*PublicUser, error) {
	user, lookupErr := a.users.GetByEmail(ctx, email)

	var targetHash string
	userExists := false

	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = dummyPasswordHash
	default:
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	// Always verify, even for unknown emails, to keep timing uniform.
	valid, verifyErr := a.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, invalidCredentials()
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, invalidCredentials()
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID, a.now()); err != nil {
		a.logger.WarnContext(ctx, "best-effort last login update failed",
			"operation", "update_last_login",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}

	if a.hasher.NeedsUpgrade(user.PasswordHash) {
		a.upgradeHash(ctx, user.ID, password)
	}

	return user.Public(), nil
}

// upgradeHash rewrites a legacy digest as argon2id. Failures are logged only.
func (a *Authenticator) upgradeHash(ctx context.Context, id int64, password string) {
	newHash, err := a.hasher.Hash(password)
	if err == nil {
		err = a.users.UpdatePasswordHash(ctx, id, newHash)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "best-effort password hash upgrade failed",
			"operation", "upgrade_hash",
			"user_id", id,
			"error", err.Error(),
		)
	}
}

// GetUserByID returns the public projection of a user.
func (a *Authenticator) GetUserByID(ctx context.Context, id int64) (*PublicUser, error) {
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, oops.Code("AUTH_GET_USER_FAILED").
			With("operation", "get user by id").
			With("user_id", id).
			Wrap(err)
	}
	return user.Public(), nil
}

// ListUsers returns every user in ID order.
func (a *Authenticator) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := a.users.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_USERS_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// UpdateRole assigns any of AllRoles to a user. Unlike CreateUser, coach and
// driver are allowed here.
func (a *Authenticator) UpdateRole(ctx context.Context, id int64, role Role) error {
	if !role.Valid() {
		return oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Wrapf(ErrValidation, "invalid role %q", role)
	}
	if err := a.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, ErrNotFound) {
			return userNotFound(id)
		}
		return oops.Code("AUTH_UPDATE_ROLE_FAILED").
			With("operation", "update role").
			With("user_id", id).
			Wrap(err)
	}
	return nil
}

func userNotFound(id int64) error {
	return oops.Code("AUTH_USER_NOT_FOUND").With("user_id", id).Wrapf(ErrNotFound, "user %d not found", id)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrapf(ErrInvalidCredentials, "invalid email or password")
}

// normalizeOrganization trims and sanitizes the optional organization.
// Returns nil when nothing remains.
func normalizeOrganization(org string) (*string, error) {
	// StrictPolicy escapes entities; the field is stored as plain text.
	cleaned := strings.TrimSpace(html.UnescapeString(organizationPolicy.Sanitize(org)))
	if cleaned == "" {
		return nil, nil
	}
	if len(cleaned) > MaxOrganizationLength {
		return nil, oops.Code("AUTH_INVALID_ORGANIZATION").
			With("max", MaxOrganizationLength).
			Wrapf(ErrValidation, "organization must be at most %d characters", MaxOrganizationLength)
	}
	return &cleaned, nil
}
