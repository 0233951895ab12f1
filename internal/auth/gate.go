// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"net/http"

	"github.com/samber/oops"
)

// CookieJar is the request/response cookie capability the gate needs.
// It keeps this package independent of any HTTP framework.
type CookieJar interface {
	// Cookie returns the inbound cookie value for name.
	Cookie(name string) (string, bool)
	// SetCookie adds c to the outbound response.
	SetCookie(c *http.Cookie)
	// DeleteCookie instructs the client to drop the named cookie.
	DeleteCookie(name string)
}

// SessionGate resolves the caller of a request from its session cookie and
// enforces authentication and role requirements.
type SessionGate struct {
	codec *SessionCodec
}

// NewSessionGate creates a SessionGate.
func NewSessionGate(codec *SessionCodec) (*SessionGate, error) {
	if codec == nil {
		return nil, oops.Code("SESSION_INVALID_DEPENDENCY").Errorf("session codec is required")
	}
	return &SessionGate{codec: codec}, nil
}

// Codec returns the underlying codec.
func (g *SessionGate) Codec() *SessionCodec {
	return g.codec
}

// CurrentUser returns the user embedded in the request's session, if any.
func (g *SessionGate) CurrentUser(ctx context.Context, jar CookieJar) (*PublicUser, bool) {
	raw, ok := jar.Cookie(SessionCookieName)
	if !ok {
		return nil, false
	}
	session, ok := g.codec.Decode(ctx, raw)
	if !ok {
		return nil, false
	}
	user := session.User
	return &user, true
}

// RequireUser returns the current user or fails with ErrAuthenticationRequired.
func (g *SessionGate) RequireUser(ctx context.Context, jar CookieJar) (*PublicUser, error) {
	user, ok := g.CurrentUser(ctx, jar)
	if !ok {
		return nil, oops.Code("AUTH_REQUIRED").Wrapf(ErrAuthenticationRequired, "authentication required")
	}
	return user, nil
}

// RequireRole returns the current user if their role is one of allowed.
// Fails with ErrAuthenticationRequired when anonymous and ErrAuthorization
// when the role does not match.
func (g *SessionGate) RequireRole(ctx context.Context, jar CookieJar, allowed ...Role) (*PublicUser, error) {
	user, err := g.RequireUser(ctx, jar)
	if err != nil {
		return nil, err
	}
	if !user.Role.In(allowed...) {
		return nil, oops.Code("AUTH_FORBIDDEN").
			With("user_id", user.ID).
			With("role", user.Role.String()).
			Wrapf(ErrAuthorization, "insufficient permissions")
	}
	return user, nil
}

// Establish issues a session cookie for user.
func (g *SessionGate) Establish(_ context.Context, jar CookieJar, user *PublicUser) error {
	value, err := g.codec.Encode(user)
	if err != nil {
		return err
	}
	jar.SetCookie(g.codec.Cookie(value))
	return nil
}

// Clear removes the session cookie. Clearing an absent cookie is not an error.
func (g *SessionGate) Clear(jar CookieJar) {
	jar.DeleteCookie(SessionCookieName)
}
