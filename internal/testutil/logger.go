// Package testutil contains helpers shared by tests.
package testutil

import (
	"io"
	"testing"

	"github.com/dtroode/authkeeper/internal/logger"
)

// MakeNoopLogger returns a logger that discards everything.
func MakeNoopLogger() *logger.Logger {
	return logger.NewWithFormat(0, "text", io.Discard)
}

// MakeTestLogger returns a debug logger that writes through t.Log, so output
// shows up only for failing tests or with -v.
func MakeTestLogger(t testing.TB) *logger.Logger {
	return logger.NewWithFormat(-4, "text", testWriter{t})
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
