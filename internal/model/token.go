package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager generates and validates access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(identity Identity) (string, AccessClaims, error)
	GenerateRefreshToken(userID uuid.UUID) (string, RefreshClaims, error)
	ParseAccessToken(token string) (AccessClaims, error)
	ParseRefreshToken(token string) (RefreshClaims, error)
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	UserID    uuid.UUID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
