package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper/internal/model"
)

// ContextManager is a mock of model.ContextManager.
type ContextManager struct {
	mock.Mock
}

func NewContextManager(t testingT) *ContextManager {
	m := &ContextManager{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *ContextManager) SetClaimsToContext(ctx context.Context, claims model.AccessClaims) context.Context {
	args := m.Called(ctx, claims)
	return args.Get(0).(context.Context)
}

func (m *ContextManager) GetClaimsFromContext(ctx context.Context) (*model.AccessClaims, bool) {
	args := m.Called(ctx)
	claims, _ := args.Get(0).(*model.AccessClaims)
	return claims, args.Bool(1)
}
