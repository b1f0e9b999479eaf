package mocks

import (
	"net"

	"github.com/stretchr/testify/mock"
)

// SecurityLayer is a mock of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

func NewSecurityLayer(t testingT) *SecurityLayer {
	m := &SecurityLayer{}
	m.Mock.Test(t)
	register(t, m)
	return m
}

func (m *SecurityLayer) Listen(network, addr string) (net.Listener, error) {
	args := m.Called(network, addr)
	lis, _ := args.Get(0).(net.Listener)
	return lis, args.Error(1)
}
