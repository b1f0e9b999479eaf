package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims is the JWT payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	TokenType string     `json:"typ"`
}

// RefreshClaims is the JWT payload of a refresh token. It carries no profile data.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// Option configures a JWT manager.
type Option func(*JWT)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// JWT implements model.TokenManager with HMAC-SHA256. Access and refresh tokens
// are signed with different secrets, so one class can never pass as the other.
type JWT struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a token manager. It fails with model.ErrSigning when a secret
// is empty, both secrets are equal, or a TTL is not positive.
func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*JWT, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("%w: empty signing secret", model.ErrSigning)
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", model.ErrSigning)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", model.ErrSigning)
	}

	j := &JWT{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// GenerateAccessToken creates a short-lived access token for identity.
func (j *JWT) GenerateAccessToken(identity model.Identity) (string, model.AccessClaims, error) {
	now := j.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Email:     identity.Email,
		Role:      identity.Role,
		TokenType: typeAccess,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.accessSecret)
	if err != nil {
		return "", model.AccessClaims{}, fmt.Errorf("%w: failed to sign access token: %w", model.ErrSigning, err)
	}

	return tokenString, toAccessClaims(identity.ID, claims), nil
}

// GenerateRefreshToken creates a long-lived refresh token. The random JTI keeps
// two tokens issued in the same second for the same user distinct.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID) (string, model.RefreshClaims, error) {
	now := j.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		TokenType: typeRefresh,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.refreshSecret)
	if err != nil {
		return "", model.RefreshClaims{}, fmt.Errorf("%w: failed to sign refresh token: %w", model.ErrSigning, err)
	}

	return tokenString, model.RefreshClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ParseAccessToken verifies signature, expiry and type of an access token.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenString, claims, j.accessSecret); err != nil {
		return model.AccessClaims{}, err
	}
	if claims.TokenType != typeAccess {
		return model.AccessClaims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrInvalidSignature, claims.TokenType)
	}
	if !claims.Role.Valid() {
		return model.AccessClaims{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidSignature, claims.Role)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("%w: malformed subject", model.ErrInvalidSignature)
	}

	return toAccessClaims(userID, *claims), nil
}

// ParseRefreshToken verifies signature, expiry and type of a refresh token.
func (j *JWT) ParseRefreshToken(tokenString string) (model.RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenString, claims, j.refreshSecret); err != nil {
		return model.RefreshClaims{}, err
	}
	if claims.TokenType != typeRefresh {
		return model.RefreshClaims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrInvalidSignature, claims.TokenType)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.RefreshClaims{}, fmt.Errorf("%w: malformed subject", model.ErrInvalidSignature)
	}

	out := model.RefreshClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (j *JWT) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %w", model.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %w", model.ErrInvalidSignature, err)
	}
	if !token.Valid {
		return model.ErrInvalidSignature
	}

	return nil
}

func toAccessClaims(userID uuid.UUID, c AccessClaims) model.AccessClaims {
	out := model.AccessClaims{
		UserID:    userID,
		Email:     c.Email,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	return out
}
