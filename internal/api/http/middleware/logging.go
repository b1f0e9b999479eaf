package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"

	"github.com/dtroode/authkeeper/internal/logger"
)

// Logging logs HTTP requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, path, status and duration for each request.
func (l *Logging) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration_ms", m.Duration.Milliseconds(),
			"bytes", m.Written,
		}

		switch {
		case m.Code >= http.StatusInternalServerError:
			l.logger.Error("HTTP request completed", args...)
		case m.Code >= http.StatusBadRequest:
			l.logger.Warn("HTTP request completed", args...)
		default:
			l.logger.Info("HTTP request completed", args...)
		}
	})
}
