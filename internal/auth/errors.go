// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import "errors"

// Sentinel errors for the authentication taxonomy. Coded oops errors returned by
// this package wrap one of these, so callers can classify with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an email is already registered.
	ErrConflict = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthenticationRequired is returned when no valid session is present.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrAuthorization is returned when the session's role is not allowed.
	ErrAuthorization = errors.New("insufficient role")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidToken is returned when a reset token was never issued, has
	// expired, or has already been used.
	ErrInvalidToken = errors.New("invalid or expired reset token")
)
