package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/authkeeper/internal/model"
)

// transientClasses are SQLSTATE classes that describe the server or the
// connection rather than the statement: connection exceptions, insufficient
// resources and operator intervention.
var transientClasses = []string{"08", "53", "57"}

// wrapErr adds msg to err and tags it with model.ErrUnavailable when the
// failure is in the connection or the server rather than in the data.
func wrapErr(msg string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", msg, model.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range transientClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
