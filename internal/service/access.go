package service

import (
	"slices"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// AccessGate checks access tokens and roles for a single request.
type AccessGate struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewAccessGate(manager model.TokenManager, logger *logger.Logger) *AccessGate {
	return &AccessGate{manager: manager, logger: logger}
}

// Authenticate verifies a bearer access token.
func (g *AccessGate) Authenticate(token string) (model.AccessClaims, error) {
	if token == "" {
		return model.AccessClaims{}, apierrors.NewErrMissingAuthorizationToken()
	}

	claims, err := g.manager.ParseAccessToken(token)
	if err != nil {
		g.logger.Debug("Access gate: access token rejected",
			"error", err.Error())
		return model.AccessClaims{}, apierrors.NewErrInvalidAuthorizationToken()
	}

	return claims, nil
}

// Authorize allows the request only if claims carry one of roles. nil claims
// mean Authenticate did not run and are rejected as unauthenticated.
func (g *AccessGate) Authorize(claims *model.AccessClaims, roles ...model.Role) error {
	if claims == nil {
		return apierrors.NewErrAuthenticationRequired()
	}
	if !slices.Contains(roles, claims.Role) {
		g.logger.Info("Access gate: role not allowed",
			"user_id", claims.UserID,
			"role", claims.Role)
		return apierrors.NewErrInsufficientRole()
	}
	return nil
}
