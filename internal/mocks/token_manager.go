package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper/internal/model"
)

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func NewTokenManager(t testingT) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *TokenManager) GenerateAccessToken(identity model.Identity) (string, model.AccessClaims, error) {
	args := m.Called(identity)
	return args.String(0), args.Get(1).(model.AccessClaims), args.Error(2)
}

func (m *TokenManager) GenerateRefreshToken(userID uuid.UUID) (string, model.RefreshClaims, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(model.RefreshClaims), args.Error(2)
}

func (m *TokenManager) ParseAccessToken(token string) (model.AccessClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.AccessClaims), args.Error(1)
}

func (m *TokenManager) ParseRefreshToken(token string) (model.RefreshClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.RefreshClaims), args.Error(1)
}
