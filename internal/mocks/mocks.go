// Package mocks holds testify mocks of the interfaces in model and the HTTP layer.
package mocks

import "github.com/stretchr/testify/mock"

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t testingT, m interface{ AssertExpectations(mock.TestingT) bool }) {
	t.Cleanup(func() { m.AssertExpectations(t) })
}
