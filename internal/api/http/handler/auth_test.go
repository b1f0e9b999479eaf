package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/authkeeper/internal/api/http/context"
	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/mocks"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/testutil"
)

func newAuthHandler(t *testing.T) (*Auth, *mocks.AuthService) {
	svc := mocks.NewAuthService(t)
	return NewAuth(svc, svc, httpctx.NewManager(), testutil.MakeNoopLogger()), svc
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	identity := model.Identity{ID: uuid.New(), Name: "Alice", Email: "alice@x.com", Role: model.RoleUser, IsActive: true}
	svc.On("Register", mock.Anything, "Alice", "alice@x.com", "secret1").
		Return(model.AuthResult{User: identity, TokenPair: model.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}, nil)

	rec := httptest.NewRecorder()
	h.Register(rec, newRequest(http.MethodPost, "/api/v1/auth/register", `{"name":" Alice ","email":"alice@x.com","password":"secret1"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Registration successful", body.Message)

	var data struct {
		User         model.Identity `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, identity.ID, data.User.ID)
	assert.Equal(t, "acc", data.AccessToken)
	assert.Equal(t, "ref", data.RefreshToken)
	assert.NotContains(t, string(body.Data), "password")
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty body", body: "", message: "request body is required"},
		{name: "malformed", body: `{"name":`, message: "malformed JSON body"},
		{name: "unknown field", body: `{"name":"Alice","email":"a@x.com","password":"secret1","role":"admin"}`, message: "malformed JSON body"},
		{name: "short name", body: `{"name":"A","email":"a@x.com","password":"secret1"}`, message: "name must be between 2 and 50 characters"},
		{name: "long name", body: `{"name":"` + strings.Repeat("a", 51) + `","email":"a@x.com","password":"secret1"}`, message: "name must be between 2 and 50 characters"},
		{name: "missing email", body: `{"name":"Alice","password":"secret1"}`, message: "email is required"},
		{name: "bad email", body: `{"name":"Alice","email":"not-an-email","password":"secret1"}`, message: "email is invalid"},
		{name: "short password", body: `{"name":"Alice","email":"a@x.com","password":"12345"}`, message: "password must be between 6 and 128 characters"},
		{name: "long password", body: `{"name":"Alice","email":"a@x.com","password":"` + strings.Repeat("p", 129) + `"}`, message: "password must be between 6 and 128 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthHandler(t)

			rec := httptest.NewRecorder()
			h.Register(rec, newRequest(http.MethodPost, "/api/v1/auth/register", tt.body))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeResponse(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestAuth_Register_EmailTaken(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	svc.On("Register", mock.Anything, "Alice", "alice@x.com", "secret1").
		Return(model.AuthResult{}, apierrors.NewErrEmailIsTaken("alice@x.com"))

	rec := httptest.NewRecorder()
	h.Register(rec, newRequest(http.MethodPost, "/", `{"name":"Alice","email":"alice@x.com","password":"secret1"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email alice@x.com is already taken", decodeResponse(t, rec).Message)
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	svc.On("Login", mock.Anything, "alice@x.com", "secret1").
		Return(model.AuthResult{User: model.Identity{ID: uuid.New()}, TokenPair: model.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}, nil)

	rec := httptest.NewRecorder()
	h.Login(rec, newRequest(http.MethodPost, "/", `{"email":"alice@x.com","password":"secret1"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Login successful", body.Message)
}

func TestAuth_Login_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid credentials", err: apierrors.NewErrInvalidCredentials(), status: http.StatusUnauthorized},
		{name: "deactivated", err: apierrors.NewErrAccountDeactivated(), status: http.StatusForbidden},
		{name: "storage down", err: apierrors.NewErrStorageUnavailable(assert.AnError), status: http.StatusServiceUnavailable},
		{name: "unexpected", err: assert.AnError, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newAuthHandler(t)
			svc.On("Login", mock.Anything, "alice@x.com", "secret1").Return(model.AuthResult{}, tt.err)

			rec := httptest.NewRecorder()
			h.Login(rec, newRequest(http.MethodPost, "/", `{"email":"alice@x.com","password":"secret1"}`))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeResponse(t, rec)
			assert.False(t, body.Success)
			assert.NotContains(t, body.Message, assert.AnError.Error())
		})
	}
}

func TestAuth_Login_MissingPassword(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, newRequest(http.MethodPost, "/", `{"email":"alice@x.com"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password is required", decodeResponse(t, rec).Message)
}

func TestAuth_RefreshToken(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	svc.On("Refresh", mock.Anything, "ref").Return(model.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, nil)

	rec := httptest.NewRecorder()
	h.RefreshToken(rec, newRequest(http.MethodPost, "/", `{"refreshToken":"ref"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Token refreshed successfully", body.Message)

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(body.Data, &pair))
	assert.Equal(t, model.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, pair)
}

func TestAuth_RefreshToken_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing token", func(t *testing.T) {
		h, _ := newAuthHandler(t)

		rec := httptest.NewRecorder()
		h.RefreshToken(rec, newRequest(http.MethodPost, "/", `{}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "refresh token is required", decodeResponse(t, rec).Message)
	})

	t.Run("revoked", func(t *testing.T) {
		h, svc := newAuthHandler(t)
		svc.On("Refresh", mock.Anything, "ref").Return(model.TokenPair{}, apierrors.NewErrRevokedRefreshToken())

		rec := httptest.NewRecorder()
		h.RefreshToken(rec, newRequest(http.MethodPost, "/", `{"refreshToken":"ref"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	claims := model.AccessClaims{UserID: uuid.New(), Role: model.RoleUser}

	t.Run("with token", func(t *testing.T) {
		h, svc := newAuthHandler(t)
		svc.On("Logout", mock.Anything, claims.UserID, "ref").Return(nil)

		rec := httptest.NewRecorder()
		h.Logout(rec, withClaims(newRequest(http.MethodPost, "/", `{"refreshToken":"ref"}`), claims))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logged out successfully", decodeResponse(t, rec).Message)
	})

	t.Run("empty body", func(t *testing.T) {
		h, svc := newAuthHandler(t)
		svc.On("Logout", mock.Anything, claims.UserID, "").Return(nil)

		rec := httptest.NewRecorder()
		h.Logout(rec, withClaims(newRequest(http.MethodPost, "/", ""), claims))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("storage down", func(t *testing.T) {
		h, svc := newAuthHandler(t)
		svc.On("Logout", mock.Anything, claims.UserID, "ref").Return(apierrors.NewErrStorageUnavailable(assert.AnError))

		rec := httptest.NewRecorder()
		h.Logout(rec, withClaims(newRequest(http.MethodPost, "/", `{"refreshToken":"ref"}`), claims))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h, _ := newAuthHandler(t)

		rec := httptest.NewRecorder()
		h.Logout(rec, newRequest(http.MethodPost, "/", `{"refreshToken":"ref"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuth_LogoutAll(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	userID := uuid.New()
	svc.On("LogoutAll", mock.Anything, userID).Return(nil)

	rec := httptest.NewRecorder()
	h.LogoutAll(rec, withClaims(newRequest(http.MethodPost, "/", ""), model.AccessClaims{UserID: userID, Role: model.RoleUser}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_LogoutAll_Unauthenticated(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.LogoutAll(rec, newRequest(http.MethodPost, "/", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()

	h, svc := newAuthHandler(t)
	identity := model.Identity{ID: uuid.New(), Name: "Alice", Email: "alice@x.com", Role: model.RoleUser, IsActive: true}
	svc.On("GetUser", mock.Anything, identity.ID).Return(identity, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, withClaims(newRequest(http.MethodGet, "/", ""), model.AccessClaims{UserID: identity.ID, Role: model.RoleUser}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "User profile fetched", body.Message)

	var got model.Identity
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, identity.Email, got.Email)
}
