package context

import (
	"context"

	"github.com/dtroode/authkeeper/internal/model"
)

type claimsKey struct{}

// Manager stores verified access claims in a request context.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetClaimsToContext(ctx context.Context, claims model.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, &claims)
}

// GetClaimsFromContext returns the claims set by the authentication middleware.
func (m *Manager) GetClaimsFromContext(ctx context.Context) (*model.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*model.AccessClaims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
