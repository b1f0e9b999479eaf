package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/authkeeper/internal/api/http/context"
	"github.com/dtroode/authkeeper/internal/model"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func newRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func withClaims(r *http.Request, claims model.AccessClaims) *http.Request {
	ctx := httpctx.NewManager().SetClaimsToContext(context.Background(), claims)
	return r.WithContext(ctx)
}
