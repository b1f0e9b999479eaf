package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// Auth runs registration, login, refresh and logout. Every error it returns
// is an *apierrors.APIError carrying one model error kind.
type Auth struct {
	credentials  *Credentials
	tokenService *TokenService
	manager      model.TokenManager
	logger       *logger.Logger
}

// NewAuth wires the auth service. timeout bounds each storage call.
func NewAuth(
	userStore model.UserStore,
	refreshTokenStore model.RefreshTokenStore,
	hasher model.PasswordHasher,
	tokenManager model.TokenManager,
	timeout time.Duration,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		credentials:  NewCredentials(userStore, hasher, timeout, logger),
		tokenService: NewTokenService(tokenManager, refreshTokenStore, timeout, logger),
		manager:      tokenManager,
		logger:       logger,
	}
}

func (a *Auth) Register(ctx context.Context, name, email, secret string) (model.AuthResult, error) {
	email = model.NormalizeEmail(email)
	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	_, err := a.credentials.FindByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.AuthResult{}, apierrors.NewErrEmailIsTaken(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, err
	}

	identity, err := a.credentials.Create(ctx, name, email, secret)
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, err
	}

	pair, err := a.tokenService.Issue(ctx, identity)
	if err != nil {
		return model.AuthResult{}, err
	}

	a.logger.Info("Auth service: user registered",
		"user_id", identity.ID)

	return model.AuthResult{User: identity, TokenPair: pair}, nil
}

// Login checks the secret before the active flag, so a wrong secret for a
// deactivated account is reported as invalid credentials.
func (a *Auth) Login(ctx context.Context, email, secret string) (model.AuthResult, error) {
	identity, ok, err := a.credentials.VerifySecret(ctx, email, secret)
	if err != nil {
		a.logger.Error("Auth service: failed to verify credentials",
			"error", err.Error())
		return model.AuthResult{}, err
	}
	if !ok {
		a.logger.Info("Auth service: invalid credentials")
		return model.AuthResult{}, apierrors.NewErrInvalidCredentials()
	}
	if !identity.IsActive {
		a.logger.Info("Auth service: login to deactivated account",
			"user_id", identity.ID)
		return model.AuthResult{}, apierrors.NewErrAccountDeactivated()
	}

	pair, err := a.tokenService.Issue(ctx, identity)
	if err != nil {
		return model.AuthResult{}, err
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", identity.ID)

	return model.AuthResult{User: identity, TokenPair: pair}, nil
}

// Refresh verifies the token, checks its owner and rotates it.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := a.manager.ParseRefreshToken(refreshToken)
	if err != nil {
		a.logger.Debug("Auth service: refresh token rejected",
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
	}

	identity, err := a.credentials.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return model.TokenPair{}, err
	}
	if !identity.IsActive {
		return model.TokenPair{}, apierrors.NewErrAccountDeactivated()
	}

	return a.tokenService.Rotate(ctx, identity, refreshToken)
}

// Logout revokes one refresh token of userID. Unknown, malformed and expired
// tokens are accepted silently, as are tokens of another user, which stay
// valid. Only a storage failure is reported.
func (a *Auth) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := a.tokenService.Revoke(ctx, userID, refreshToken); err != nil {
		a.logger.Error("Auth service: failed to revoke refresh token",
			"user_id", userID,
			"error", err.Error())
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (a *Auth) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := a.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		a.logger.Error("Auth service: failed to revoke user sessions",
			"user_id", userID,
			"error", err.Error())
		return err
	}

	a.logger.Info("Auth service: all sessions revoked",
		"user_id", userID)
	return nil
}

func (a *Auth) GetUser(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	identity, err := a.credentials.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, apierrors.NewErrUserNotFound()
	}
	return identity, err
}

// SetActive changes the active flag. Deactivation also revokes every session
// of the user.
func (a *Auth) SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Identity, error) {
	identity, err := a.credentials.SetActive(ctx, id, active)
	if err != nil {
		return model.Identity{}, err
	}

	if !active {
		if err := a.tokenService.RevokeAllForUser(ctx, id); err != nil {
			a.logger.Error("Auth service: failed to revoke sessions of deactivated user",
				"user_id", id,
				"error", err.Error())
			return model.Identity{}, err
		}
	}

	a.logger.Info("Auth service: user status changed",
		"user_id", id,
		"active", active)

	return identity, nil
}

// UpdateUser applies an admin change to a user. Switching IsActive to false
// revokes every session of the user, as SetActive does.
func (a *Auth) UpdateUser(ctx context.Context, id uuid.UUID, update model.UserUpdate) (model.Identity, error) {
	if update.Empty() {
		return model.Identity{}, apierrors.NewErrBadRequest("at least one field must be provided")
	}
	if update.Role != nil && !update.Role.Valid() {
		return model.Identity{}, apierrors.NewErrBadRequest("role must be either user or admin")
	}

	identity, err := a.credentials.Update(ctx, id, update)
	if err != nil {
		return model.Identity{}, err
	}

	if update.IsActive != nil && !*update.IsActive {
		if err := a.tokenService.RevokeAllForUser(ctx, id); err != nil {
			a.logger.Error("Auth service: failed to revoke sessions of deactivated user",
				"user_id", id,
				"error", err.Error())
			return model.Identity{}, err
		}
	}

	a.logger.Info("Auth service: user updated",
		"user_id", id,
		"role", identity.Role,
		"active", identity.IsActive)

	return identity, nil
}
