package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper/internal/model"
)

// RefreshTokenStore is a mock of model.RefreshTokenStore.
type RefreshTokenStore struct {
	mock.Mock
}

func NewRefreshTokenStore(t testingT) *RefreshTokenStore {
	m := &RefreshTokenStore{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) FindActive(ctx context.Context, userID uuid.UUID, tokenHash []byte) (model.RefreshToken, error) {
	args := m.Called(ctx, userID, tokenHash)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenHash []byte) error {
	args := m.Called(ctx, userID, tokenHash)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, userID uuid.UUID, oldHash []byte, next model.RefreshToken) error {
	args := m.Called(ctx, userID, oldHash, next)
	return args.Error(0)
}

func (m *RefreshTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RefreshTokenStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
