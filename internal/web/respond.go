// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/pkg/errutil"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Response codes.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

const msgInternal = "Internal server error"

type apiError struct {
	status  int
	code    string
	message string
}

// sentinelErrors maps the auth error taxonomy to responses, in match order.
var sentinelErrors = []struct {
	target error
	apiError
}{
	{auth.ErrValidation, apiError{http.StatusBadRequest, CodeValidation, "Invalid request"}},
	{auth.ErrInvalidToken, apiError{http.StatusBadRequest, CodeInvalidToken, "Invalid or expired reset token"}},
	{auth.ErrInvalidCredentials, apiError{http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials"}},
	{auth.ErrAuthenticationRequired, apiError{http.StatusUnauthorized, CodeUnauthorized, "Not authenticated"}},
	{auth.ErrAuthorization, apiError{http.StatusForbidden, CodeForbidden, "Insufficient permissions"}},
	{auth.ErrNotFound, apiError{http.StatusNotFound, CodeNotFound, "User not found"}},
	{auth.ErrConflict, apiError{http.StatusConflict, CodeConflict, "Email already exists"}},
}

// validationMessages refines the generic validation message by error code.
var validationMessages = map[string]string{
	"AUTH_INVALID_ROLE":         "Invalid role",
	"AUTH_INVALID_EMAIL":        "Invalid email address",
	"AUTH_EMPTY_PASSWORD":       "Email and password are required",
	"AUTH_INVALID_ORGANIZATION": "Organization is too long",
	"RESET_PASSWORD_TOO_SHORT":  "Password must be at least 8 characters long",
}

// classify maps err to a client response. ok is false for errors outside
// the taxonomy, which must be reported as internal errors.
func classify(err error) (apiError, bool) {
	for _, s := range sentinelErrors {
		if !errors.Is(err, s.target) {
			continue
		}
		out := s.apiError
		if s.target == auth.ErrValidation {
			if msg, ok := validationMessages[errutil.Code(err)]; ok {
				out.message = msg
			}
		}
		return out, true
	}
	return apiError{}, false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, CodeInternal, msgInternal)
}

// writeServiceError writes the response for a service error. Errors outside
// the taxonomy are logged with their code and context and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if e, ok := classify(err); ok {
		writeError(w, e.status, e.code, e.message)
		return
	}
	errutil.LogErrorContext(r.Context(), logger, "request failed", err)
	writeInternalError(w)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return oops.Code("WEB_INVALID_BODY").Wrap(err)
	}
	return nil
}
