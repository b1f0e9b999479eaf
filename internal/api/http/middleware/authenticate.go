package middleware

import (
	"net/http"
	"strings"

	"github.com/dtroode/authkeeper/internal/api/http/handler"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// AccessGate verifies access tokens and roles.
type AccessGate interface {
	Authenticate(token string) (model.AccessClaims, error)
	Authorize(claims *model.AccessClaims, roles ...model.Role) error
}

// Authenticate validates bearer tokens and injects access claims into the request context.
type Authenticate struct {
	gate           AccessGate
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(gate AccessGate, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{gate: gate, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid bearer access token.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.gate.Authenticate(bearerToken(r))
		if err != nil {
			handler.WriteError(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetClaimsToContext(r.Context(), claims)))
	})
}

// RequireRoles allows the request only if the authenticated caller holds one of roles.
func (m *Authenticate) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := m.contextManager.GetClaimsFromContext(r.Context())
			if err := m.gate.Authorize(claims, roles...); err != nil {
				handler.WriteError(w, r, m.logger, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
