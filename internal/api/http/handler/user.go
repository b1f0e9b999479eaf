package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// UserService defines user lookup and administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.Identity, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Identity, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update model.UserUpdate) (model.Identity, error)
}

// User handles HTTP endpoints for user administration.
type User struct {
	userService    UserService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewUser(userService UserService, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{
		userService:    userService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// GetUser returns a user by id. Non-admins may only read their own profile.
func (h *User) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apierrors.NewErrAuthenticationRequired())
		return
	}
	if claims.Role != model.RoleAdmin && claims.UserID != id {
		WriteError(w, r, h.logger, apierrors.NewErrInsufficientRole())
		return
	}

	identity, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "User fetched", identity)
}

// SetStatus activates or deactivates a user.
func (h *User) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	identity, err := h.userService.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		h.logger.Info("User handler: status change failed",
			"user_id", id,
			"error", err.Error())
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User handler: status changed",
		"user_id", id,
		"active", identity.IsActive)

	writeJSON(w, http.StatusOK, "User status updated", identity)
}

// UpdateUser changes name, email, role or active flag of a user.
func (h *User) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	identity, err := h.userService.UpdateUser(r.Context(), id, req.update())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User handler: user updated",
		"user_id", id)

	writeJSON(w, http.StatusOK, "User updated successfully", identity)
}

func userIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, apierrors.NewErrBadRequest("invalid user id")
	}
	return id, nil
}
