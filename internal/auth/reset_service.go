// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	users    UserRepository
	hasher   PasswordHasher
	notifier ResetNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService.
// A nil notifier falls back to a LogNotifier without links.
func NewPasswordResetService(
	users UserRepository,
	hasher PasswordHasher,
	notifier ResetNotifier,
	opts ...Option,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Code("RESET_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("RESET_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	o := applyOptions(opts)
	if notifier == nil {
		notifier = &LogNotifier{Logger: o.logger}
	}
	return &PasswordResetService{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		logger:   o.logger,
		now:      o.now,
	}, nil
}

// RequestReset issues a reset token for the user with the given email.
// The plaintext token is returned for delivery; an unknown email returns an
// empty token and no error, and leaves the Credential Store untouched.
// Issuing a token replaces any earlier one.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	expiresAt := s.now().Add(ResetTokenExpiry)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "SetResetToken").
			With("user_id", user.ID).
			Wrap(err)
	}

	// The token is persisted; delivery problems must not turn into a
	// response that differs from the unknown-email case.
	if err := s.notifier.NotifyReset(ctx, user.Public(), token); err != nil {
		s.logger.WarnContext(ctx, "best-effort reset notification failed",
			"operation", "notify_reset",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}

	return token, nil
}

// ResetPassword sets a new password using a valid reset token and consumes
// the token. Never-issued, expired and already-used tokens all fail with
// ErrInvalidToken. No session is issued.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinResetPasswordLength {
		return oops.Code("RESET_PASSWORD_TOO_SHORT").
			With("min", MinResetPasswordLength).
			Wrapf(ErrValidation, "password must be at least %d characters long", MinResetPasswordLength)
	}
	if token == "" {
		return invalidToken()
	}

	tokenHash := HashResetToken(token)

	user, err := s.users.GetByResetToken(ctx, tokenHash, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidToken()
		}
		return oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "GetByResetToken").
			Wrap(err)
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	// Conditional on the token still being present, so a concurrent reset
	// with the same token cannot also succeed.
	if err := s.users.CompletePasswordReset(ctx, user.ID, tokenHash, hashedPassword); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidToken()
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "CompletePasswordReset").
			With("user_id", user.ID).
			Wrap(err)
	}

	return nil
}

func invalidToken() error {
	return oops.Code("RESET_TOKEN_INVALID").Wrapf(ErrInvalidToken, "invalid or expired reset token")
}
