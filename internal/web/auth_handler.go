// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"net/http"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/observability"
)

// Public response messages.
const (
	msgResetRequested = "If an account with that email exists, a password reset link has been sent."
	msgResetComplete  = "Password has been reset successfully. You can now log in with your new password."
	msgLoggedOut      = "Logged out successfully"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User *auth.PublicUser `json:"user"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse is returned by forgot-password. Debug is only
// present when reset debugging is enabled and a token was issued.
type ForgotPasswordResponse struct {
	Message string      `json:"message"`
	Debug   *ResetDebug `json:"debug,omitempty"`
}

// ResetDebug exposes an issued token for development.
type ResetDebug struct {
	Token     string `json:"token"`
	ResetLink string `json:"resetLink"`
}

// Register creates an account and signs it in.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Email and password are required")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, req.Password, auth.Role(req.Role), req.Organization)
	if err != nil {
		h.metrics.RecordRegistration(resultFor(err))
		writeServiceError(w, r, h.logger, err)
		return
	}

	if err := h.gate.Establish(r.Context(), h.cookies(w, r), user); err != nil {
		h.metrics.RecordRegistration(observability.ResultError)
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.RecordRegistration(observability.ResultSuccess)
	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

// Login verifies credentials and issues a session cookie.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Email and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(resultFor(err))
		writeServiceError(w, r, h.logger, err)
		return
	}

	if err := h.gate.Establish(r.Context(), h.cookies(w, r), user); err != nil {
		h.metrics.RecordLogin(observability.ResultError)
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.RecordLogin(observability.ResultSuccess)
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// Logout clears the session cookie. Succeeds without a session.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Clear(h.cookies(w, r))
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgLoggedOut})
}

// Me returns the session user.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// ForgotPassword issues a reset token. The response never reveals whether
// the email is registered.
// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Email is required")
		return
	}

	token, err := h.resets.RequestReset(r.Context(), req.Email)
	if err != nil {
		h.metrics.RecordPasswordReset(observability.StageRequest, observability.ResultError)
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.metrics.RecordPasswordReset(observability.StageRequest, observability.ResultSuccess)

	resp := ForgotPasswordResponse{Message: msgResetRequested}
	if h.resetDebug && token != "" {
		resp.Debug = &ResetDebug{
			Token:     token,
			ResetLink: auth.ResetLink(h.resetURL, token),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword consumes a reset token and sets a new password. No session
// is issued.
// POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Token and password are required")
		return
	}

	if err := h.resets.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.metrics.RecordPasswordReset(observability.StageConfirm, resultFor(err))
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.metrics.RecordPasswordReset(observability.StageConfirm, observability.ResultSuccess)
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgResetComplete})
}

// resultFor labels a failed operation: failure for client errors, error
// for everything else.
func resultFor(err error) string {
	if _, ok := classify(err); ok {
		return observability.ResultFailure
	}
	return observability.ResultError
}
