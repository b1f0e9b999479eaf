package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// TokenService issues, rotates and revokes token pairs. It composes the
// TokenManager with the refresh token ledger; every ledger call is bounded by timeout.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	timeout time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, timeout time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{
		manager: manager,
		store:   store,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Issue creates a token pair for a new session and records the refresh token.
func (s *TokenService) Issue(ctx context.Context, identity model.Identity) (model.TokenPair, error) {
	access, refresh, claims, err := s.generate(identity)
	if err != nil {
		return model.TokenPair{}, err
	}

	record := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    identity.ID,
		SessionID: uuid.New(),
		TokenHash: hashRefresh(refresh),
		ExpiresAt: claims.ExpiresAt,
		CreatedAt: s.now(),
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Create(ctx, record); err != nil {
		s.logger.Error("Token service: failed to persist refresh token",
			"user_id", identity.ID,
			"error", err.Error())
		return model.TokenPair{}, storageFailure(err)
	}

	s.logger.Debug("Token service: session started",
		"user_id", identity.ID,
		"session_id", record.SessionID)

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges presented for a new pair in the same session. The old
// ledger record is deleted and the new one inserted in one step, so of several
// concurrent calls with the same token at most one succeeds.
func (s *TokenService) Rotate(ctx context.Context, identity model.Identity, presented string) (model.TokenPair, error) {
	oldHash := hashRefresh(presented)

	findCtx, cancel := withTimeout(ctx, s.timeout)
	current, err := s.store.FindActive(findCtx, identity.ID, oldHash)
	cancel()
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, apierrors.NewErrRevokedRefreshToken()
	}
	if err != nil {
		return model.TokenPair{}, storageFailure(err)
	}

	access, refresh, claims, err := s.generate(identity)
	if err != nil {
		return model.TokenPair{}, err
	}

	next := model.RefreshToken{
		ID:          uuid.New(),
		UserID:      identity.ID,
		SessionID:   current.SessionID,
		TokenHash:   hashRefresh(refresh),
		RotatedFrom: &current.ID,
		ExpiresAt:   claims.ExpiresAt,
		CreatedAt:   s.now(),
	}

	// A client that goes away mid-rotation must not abort the delete+insert
	// halfway; only the timeout bounds it.
	rotateCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	err = s.store.Rotate(rotateCtx, identity.ID, oldHash, next)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("Token service: refresh token reused or revoked during rotation",
			"user_id", identity.ID,
			"session_id", current.SessionID)
		return model.TokenPair{}, apierrors.NewErrRevokedRefreshToken()
	}
	if err != nil {
		s.logger.Error("Token service: failed to rotate refresh token",
			"user_id", identity.ID,
			"error", err.Error())
		return model.TokenPair{}, storageFailure(err)
	}

	s.logger.Debug("Token service: refresh token rotated",
		"user_id", identity.ID,
		"session_id", current.SessionID,
		"rotated_from", current.ID)

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke deletes the ledger record of presented if it belongs to userID.
// Unknown tokens and tokens of other users are not an error.
func (s *TokenService) Revoke(ctx context.Context, userID uuid.UUID, presented string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Revoke(ctx, userID, hashRefresh(presented)); err != nil {
		return storageFailure(err)
	}
	return nil
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.RevokeAllByUser(ctx, userID); err != nil {
		return storageFailure(err)
	}
	return nil
}

func (s *TokenService) generate(identity model.Identity) (string, string, model.RefreshClaims, error) {
	access, _, err := s.manager.GenerateAccessToken(identity)
	if err != nil {
		return "", "", model.RefreshClaims{}, apierrors.NewErrInternalServerError(fmt.Errorf("issue access: %w", err))
	}

	refresh, claims, err := s.manager.GenerateRefreshToken(identity.ID)
	if err != nil {
		return "", "", model.RefreshClaims{}, apierrors.NewErrInternalServerError(fmt.Errorf("issue refresh: %w", err))
	}

	return access, refresh, claims, nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
