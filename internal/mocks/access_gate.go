package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authkeeper/internal/model"
)

// AccessGate is a mock of the access gate used by the HTTP middleware.
type AccessGate struct {
	mock.Mock
}

func NewAccessGate(t testingT) *AccessGate {
	m := &AccessGate{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *AccessGate) Authenticate(token string) (model.AccessClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.AccessClaims), args.Error(1)
}

func (m *AccessGate) Authorize(claims *model.AccessClaims, roles ...model.Role) error {
	args := m.Called(claims, roles)
	return args.Error(0)
}
