package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// AuthService defines registration, login and session operations.
type AuthService interface {
	Register(ctx context.Context, name, email, secret string) (model.AuthResult, error)
	Login(ctx context.Context, email, secret string) (model.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	userService    UserService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, userService UserService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		userService:    userService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates an account and starts its first session.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("Auth handler: processing registration request",
		"email", req.Email)

	result, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, "Registration successful", result)
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "Login successful", result)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Info("Auth handler: token refresh failed",
			"error", err.Error())
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "Token refreshed successfully", pair)
}

// Logout revokes the caller's refresh token in the body. A token of another
// user is left alone. The body may be empty.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apierrors.NewErrAuthenticationRequired())
		return
	}

	var req refreshTokenRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if err := h.authService.Logout(r.Context(), claims.UserID, req.RefreshToken); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the caller.
func (h *Auth) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apierrors.NewErrAuthenticationRequired())
		return
	}

	if err := h.authService.LogoutAll(r.Context(), claims.UserID); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "Logged out from all sessions", nil)
}

// Me returns the profile of the caller.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apierrors.NewErrAuthenticationRequired())
		return
	}

	identity, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, "User profile fetched", identity)
}
