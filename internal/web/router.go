// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package web exposes the authentication and user administration API over
// HTTP using chi.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/observability"
)

// UserService is the account functionality the handlers need.
// *auth.Authenticator satisfies it.
type UserService interface {
	CreateUser(ctx context.Context, email, password string, role auth.Role, organization string) (*auth.PublicUser, error)
	Authenticate(ctx context.Context, email, password string) (*auth.PublicUser, error)
	GetUserByID(ctx context.Context, id int64) (*auth.PublicUser, error)
	ListUsers(ctx context.Context) ([]auth.UserSummary, error)
	UpdateRole(ctx context.Context, id int64, role auth.Role) error
}

// ResetService is the password-reset functionality the handlers need.
// *auth.PasswordResetService satisfies it.
type ResetService interface {
	RequestReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Config holds the router's dependencies.
type Config struct {
	Users   UserService
	Resets  ResetService
	Gate    *auth.SessionGate
	Metrics *observability.Metrics // optional
	Logger  *slog.Logger           // optional, defaults to slog.Default()

	// ResetURL is the base URL used for debug reset links.
	ResetURL string
	// ResetDebug includes issued reset tokens in forgot-password responses.
	ResetDebug bool
}

// Handler serves the JSON API.
type Handler struct {
	users      UserService
	resets     ResetService
	gate       *auth.SessionGate
	metrics    *observability.Metrics
	logger     *slog.Logger
	resetURL   string
	resetDebug bool
}

// NewHandler validates cfg and creates a Handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Users == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("user service is required")
	}
	if cfg.Resets == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("reset service is required")
	}
	if cfg.Gate == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("session gate is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:      cfg.Users,
		resets:     cfg.Resets,
		gate:       cfg.Gate,
		metrics:    cfg.Metrics,
		logger:     logger,
		resetURL:   cfg.ResetURL,
		resetDebug: cfg.ResetDebug,
	}, nil
}

// NewRouter builds the full API router.
//
// Middleware order: RequestID → SecurityHeaders → AccessLog → Instrument → Recoverer.
// Recoverer sits innermost so recovered panics are logged and counted as 500s.
// Admin routes additionally require a superuser session.
func NewRouter(cfg Config) (http.Handler, error) {
	h, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return h.Routes(), nil
}

// Routes returns the chi router for h.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(AccessLog(h.logger))
	r.Use(Instrument(h.metrics))
	r.Use(Recoverer(h.logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
		r.With(RequireUser(h.gate, h.logger)).Get("/me", h.Me)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(RequireRole(h.gate, h.logger, auth.RoleSuperuser))

		r.Get("/users", h.ListUsers)
		r.Get("/users/{userId}", h.GetUser)
		r.Post("/users/update-role", h.UpdateRole)
	})

	return r
}

func (h *Handler) cookies(w http.ResponseWriter, r *http.Request) *HTTPCookies {
	return NewHTTPCookies(w, r, h.gate.Codec())
}
