package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpctx "github.com/dtroode/authkeeper/internal/api/http/context"
	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/mocks"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.AuthService, *mocks.AccessGate) {
	svc := mocks.NewAuthService(t)
	gate := mocks.NewAccessGate(t)
	r := New(svc, gate, httpctx.NewManager(), testutil.MakeNoopLogger())
	return r.Register(), svc, gate
}

func serve(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	h, svc, _ := newTestRouter(t)
	svc.On("Register", mock.Anything, "Alice", "alice@x.com", "secret1").Return(model.AuthResult{}, nil)
	svc.On("Login", mock.Anything, "alice@x.com", "secret1").Return(model.AuthResult{}, nil)
	svc.On("Refresh", mock.Anything, "ref").Return(model.TokenPair{}, nil)

	rec := serve(h, http.MethodPost, "/api/v1/auth/register", "", `{"name":"Alice","email":"alice@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"alice@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/auth/refresh-token", "", `{"refreshToken":"ref"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/auth/logout-all"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/users/" + uuid.NewString()},
		{http.MethodPatch, "/api/v1/users/" + uuid.NewString() + "/status"},
		{http.MethodPut, "/api/v1/users/" + uuid.NewString()},
		{http.MethodPatch, "/api/v1/users/" + uuid.NewString()},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			h, _, gate := newTestRouter(t)
			gate.On("Authenticate", "").Return(model.AccessClaims{}, apierrors.NewErrMissingAuthorizationToken())

			rec := serve(h, rt.method, rt.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_Me(t *testing.T) {
	t.Parallel()

	h, svc, gate := newTestRouter(t)
	claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleUser}
	gate.On("Authenticate", "acc").Return(claims, nil)
	svc.On("GetUser", mock.Anything, claims.UserID).Return(model.Identity{ID: claims.UserID}, nil)

	rec := serve(h, http.MethodGet, "/api/v1/auth/me", "acc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SetStatusRequiresAdmin(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("user is forbidden", func(t *testing.T) {
		h, _, gate := newTestRouter(t)
		claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleUser}
		gate.On("Authenticate", "acc").Return(claims, nil)
		gate.On("Authorize", &claims, []model.Role{model.RoleAdmin}).Return(apierrors.NewErrInsufficientRole())

		rec := serve(h, http.MethodPatch, "/api/v1/users/"+id.String()+"/status", "acc", `{"isActive":false}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin deactivates", func(t *testing.T) {
		h, svc, gate := newTestRouter(t)
		claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleAdmin}
		gate.On("Authenticate", "acc").Return(claims, nil)
		gate.On("Authorize", &claims, []model.Role{model.RoleAdmin}).Return(nil)
		svc.On("SetActive", mock.Anything, id, false).Return(model.Identity{ID: id}, nil)

		rec := serve(h, http.MethodPatch, "/api/v1/users/"+id.String()+"/status", "acc", `{"isActive":false}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_UpdateUserRequiresAdmin(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("user is forbidden", func(t *testing.T) {
		h, _, gate := newTestRouter(t)
		claims := model.AccessClaims{UserID: id, Role: model.RoleUser}
		gate.On("Authenticate", "acc").Return(claims, nil)
		gate.On("Authorize", &claims, []model.Role{model.RoleAdmin}).Return(apierrors.NewErrInsufficientRole())

		rec := serve(h, http.MethodPatch, "/api/v1/users/"+id.String(), "acc", `{"role":"admin"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run("admin "+method, func(t *testing.T) {
			h, svc, gate := newTestRouter(t)
			claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleAdmin}
			gate.On("Authenticate", "acc").Return(claims, nil)
			gate.On("Authorize", &claims, []model.Role{model.RoleAdmin}).Return(nil)
			svc.On("UpdateUser", mock.Anything, id, mock.Anything).Return(model.Identity{ID: id, Role: model.RoleAdmin}, nil)

			rec := serve(h, method, "/api/v1/users/"+id.String(), "acc", `{"role":"admin"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRouter_LogoutIsScopedToCaller(t *testing.T) {
	t.Parallel()

	h, svc, gate := newTestRouter(t)
	claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleUser}
	gate.On("Authenticate", "acc").Return(claims, nil)
	svc.On("Logout", mock.Anything, claims.UserID, "ref").Return(nil)

	rec := serve(h, http.MethodPost, "/api/v1/auth/logout", "acc", `{"refreshToken":"ref"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_GetUserAllowsBothRoles(t *testing.T) {
	t.Parallel()

	h, svc, gate := newTestRouter(t)
	claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleUser}
	gate.On("Authenticate", "acc").Return(claims, nil)
	gate.On("Authorize", &claims, []model.Role{model.RoleUser, model.RoleAdmin}).Return(nil)
	svc.On("GetUser", mock.Anything, claims.UserID).Return(model.Identity{ID: claims.UserID}, nil)

	rec := serve(h, http.MethodGet, "/api/v1/users/"+claims.UserID.String(), "acc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = serve(h, http.MethodGet, "/api/v1/auth/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
