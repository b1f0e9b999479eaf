package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dtroode/authkeeper/internal/api/http/handler"
	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
)

// Recovery turns a panic in a handler into a 500 response.
type Recovery struct {
	logger *logger.Logger
}

func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

func (rc *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			rc.logger.Error("HTTP handler panicked",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
			handler.WriteError(w, r, rc.logger, apierrors.NewErrInternalServerError(fmt.Errorf("panic: %v", p)))
		}()

		next.ServeHTTP(w, r)
	})
}
