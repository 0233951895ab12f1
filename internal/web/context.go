// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"context"

	"github.com/mindlap/mindlap/internal/auth"
)

type contextKey int

const (
	userKey contextKey = iota
	requestInfoKey
)

// requestInfo is shared by the outer logging middleware and the inner auth
// middleware so the access log can name the authenticated user.
type requestInfo struct {
	userID int64
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *auth.PublicUser) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = user.ID
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user placed by RequireUser or RequireRole.
func UserFromContext(ctx context.Context) (*auth.PublicUser, bool) {
	user, ok := ctx.Value(userKey).(*auth.PublicUser)
	return user, ok && user != nil
}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey, info), info
}
