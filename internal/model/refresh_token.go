package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore is the refresh token ledger. A refresh token is usable
// only while a matching, unexpired record exists here.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	// FindActive returns ErrNotFound for missing and for expired records.
	FindActive(ctx context.Context, userID uuid.UUID, tokenHash []byte) (RefreshToken, error)
	// Revoke deletes the user's record with tokenHash. A missing record, or one
	// owned by another user, is left alone and is not an error.
	Revoke(ctx context.Context, userID uuid.UUID, tokenHash []byte) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	// Rotate deletes the old record and inserts next as one atomic step.
	// It returns ErrNotFound when the old record was already gone, so at
	// most one caller can rotate a given token.
	Rotate(ctx context.Context, userID uuid.UUID, oldHash []byte, next RefreshToken) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// RefreshToken is a persisted ledger record. TokenHash is the SHA-256 of the
// token string; the token itself is never stored.
type RefreshToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SessionID   uuid.UUID
	TokenHash   []byte
	RotatedFrom *uuid.UUID
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// TokenPair is what a successful login, registration or refresh hands out.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User Identity `json:"user"`
	TokenPair
}
