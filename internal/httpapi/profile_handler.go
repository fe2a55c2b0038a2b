package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/repository"
)

type ProfileHandler struct {
	users   repository.UserRepository
	timeout time.Duration
}

func NewProfileHandler(users repository.UserRepository, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{
		users:   users,
		timeout: timeout,
	}
}

// UpdateProfileRequestDTO carries the mutable profile fields. Nil fields
// are left untouched; role can never be changed through this endpoint.
type UpdateProfileRequestDTO struct {
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

// Bootstrap creates the caller's user document on first sign-in. Existing
// documents keep their role and created_at, so repeated calls are harmless.
// POST /api/v1/users
func (h *ProfileHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	profile := &domain.UserProfile{
		UID:         sess.UID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        domain.RoleUser,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.users.UpsertUser(ctx, profile); err != nil {
		handleServiceError(w, err)
		return
	}

	stored, err := h.users.GetUser(ctx, sess.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	profile, err := h.users.GetUser(ctx, sess.UID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "profile not found, sign in again to create it")
			return
		}
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// PUT /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.DisplayName == nil && req.Phone == nil && req.Address == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "no profile fields to update")
		return
	}
	if req.DisplayName != nil && *req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "displayName cannot be empty")
		return
	}

	if err := h.users.UpdateProfile(ctx, sess.UID, req.DisplayName, req.Phone, req.Address); err != nil {
		handleServiceError(w, err)
		return
	}

	profile, err := h.users.GetUser(ctx, sess.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
