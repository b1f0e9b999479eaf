package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper/internal/model"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager()
	claims := model.AccessClaims{UserID: uuid.New(), Email: "alice@x.com", Role: model.RoleAdmin}

	ctx := m.SetClaimsToContext(context.Background(), claims)

	got, ok := m.GetClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, claims, *got)
}

func TestManager_Missing(t *testing.T) {
	m := NewManager()

	got, ok := m.GetClaimsFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = m.GetClaimsFromContext(context.WithValue(context.Background(), claimsKey{}, "not claims"))
	assert.False(t, ok)
	assert.Nil(t, got)
}
