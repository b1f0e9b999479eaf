package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper/internal/model"
)

// AuthService is a mock of the auth and user services used by the HTTP handlers.
type AuthService struct {
	mock.Mock
}

func NewAuthService(t testingT) *AuthService {
	m := &AuthService{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *AuthService) Register(ctx context.Context, name, email, secret string) (model.AuthResult, error) {
	args := m.Called(ctx, name, email, secret)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, secret string) (model.AuthResult, error) {
	args := m.Called(ctx, email, secret)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *AuthService) GetUser(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *AuthService) SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Identity, error) {
	args := m.Called(ctx, id, active)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *AuthService) UpdateUser(ctx context.Context, id uuid.UUID, update model.UserUpdate) (model.Identity, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(model.Identity), args.Error(1)
}
