package mocks

import "github.com/stretchr/testify/mock"

// PasswordHasher is a mock of model.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

func NewPasswordHasher(t testingT) *PasswordHasher {
	m := &PasswordHasher{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *PasswordHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(hash, secret string) error {
	args := m.Called(hash, secret)
	return args.Error(0)
}

func (m *PasswordHasher) VerifyDummy(secret string) {
	m.Called(secret)
}
