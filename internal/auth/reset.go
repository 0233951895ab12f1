// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32        // 32 bytes = 64 hex chars
	ResetTokenExpiry = time.Hour // 1 hour expiry
)

// GenerateResetToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is delivered to the user; the hash is stored.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashResetToken(token)

	return token, hash, nil
}

// HashResetToken computes the SHA256 hex digest under which a token is stored.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// ResetNotifier delivers an issued reset token to its owner.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, user *PublicUser, token string) error
}

// LogNotifier is the development ResetNotifier. It records that a reset was
// issued and, when IncludeLink is set, the full reset link.
type LogNotifier struct {
	Logger      *slog.Logger
	ResetURL    string
	IncludeLink bool
}

// NotifyReset implements ResetNotifier.
func (n *LogNotifier) NotifyReset(ctx context.Context, user *PublicUser, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"user_id", user.ID}
	if n.IncludeLink {
		attrs = append(attrs, "reset_link", ResetLink(n.ResetURL, token))
	}
	logger.InfoContext(ctx, "password reset issued", attrs...)
	return nil
}

// ResetLink joins the reset page URL and a token.
func ResetLink(base, token string) string {
	if base == "" {
		base = "/reset-password"
	}
	return base + "?token=" + token
}
