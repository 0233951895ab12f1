// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Session cookie contract.
const (
	SessionCookieName = "session"
	SessionCookiePath = "/"
	SessionMaxAge     = 7 * 24 * time.Hour // 604800 seconds, fixed at issuance

	// MinSessionSecretLength is the minimum HMAC key size in bytes.
	MinSessionSecretLength = 32
)

// Session is a decoded session cookie.
type Session struct {
	User      PublicUser
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims is the signed cookie payload: {"user":{...},"iat":...,"exp":...}.
type sessionClaims struct {
	User *PublicUser `json:"user"`
	jwt.RegisteredClaims
}

// SessionCodec turns a PublicUser into a signed cookie value and back.
// It holds no per-request state and is safe for concurrent use.
type SessionCodec struct {
	secret []byte
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionCodec creates a codec signing with secret. secure controls the
// cookie Secure attribute and should be true only in production.
func NewSessionCodec(secret []byte, secure bool, opts ...Option) (*SessionCodec, error) {
	if len(secret) < MinSessionSecretLength {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("min", MinSessionSecretLength).
			Errorf("session secret must be at least %d bytes", MinSessionSecretLength)
	}
	o := applyOptions(opts)
	key := make([]byte, len(secret))
	copy(key, secret)
	return &SessionCodec{
		secret: key,
		secure: secure,
		logger: o.logger,
		now:    o.now,
	}, nil
}

// Encode produces the cookie value for user.
func (c *SessionCodec) Encode(user *PublicUser) (string, error) {
	if user == nil {
		return "", oops.Code("SESSION_ENCODE_FAILED").Errorf("user is required")
	}
	issued := c.now().Truncate(time.Second)
	claims := sessionClaims{
		User: &PublicUser{
			ID:           user.ID,
			Email:        user.Email,
			Role:         user.Role,
			Organization: user.Organization,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(SessionMaxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("SESSION_ENCODE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return signed, nil
}

// Decode parses a cookie value. Any parse, signature, expiry or shape failure
// yields (nil, false) and is logged; it is never returned as an error.
func (c *SessionCodec) Decode(ctx context.Context, raw string) (*Session, bool) {
	if raw == "" {
		return nil, false
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		c.logger.WarnContext(ctx, "session decode failed", "reason", err.Error())
		return nil, false
	}

	u := claims.User
	if u == nil || u.ID == 0 || u.Email == "" || !u.Role.Valid() {
		c.logger.WarnContext(ctx, "session decode failed", "reason", "missing user fields")
		return nil, false
	}

	s := &Session{User: *u}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, true
}

// Cookie builds the session cookie carrying value.
func (c *SessionCodec) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     SessionCookiePath,
		MaxAge:   int(SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookie builds a cookie that removes the session from the client.
func (c *SessionCodec) ExpiredCookie() *http.Cookie {
	cookie := c.Cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}
