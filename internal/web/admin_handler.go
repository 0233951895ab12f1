// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindlap/mindlap/internal/auth"
)

// UsersResponse is the body of GET /api/admin/users.
type UsersResponse struct {
	Users []auth.UserSummary `json:"users"`
}

// UpdateRoleRequest is the body of POST /api/admin/users/update-role.
type UpdateRoleRequest struct {
	UserID  int64  `json:"userId"`
	NewRole string `json:"newRole"`
}

// SuccessResponse acknowledges an administrative change.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListUsers returns every user.
// GET /api/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// GetUser returns one user.
// GET /api/admin/users/{userId}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid user ID")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// UpdateRole assigns any of the four roles to a user.
// POST /api/admin/users/update-role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 || req.NewRole == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Missing userId or newRole")
		return
	}

	if err := h.users.UpdateRole(r.Context(), req.UserID, auth.Role(req.NewRole)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if actor, ok := UserFromContext(r.Context()); ok {
		h.logger.InfoContext(r.Context(), "user role updated",
			"actor_id", actor.ID,
			"user_id", req.UserID,
			"role", req.NewRole,
		)
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
