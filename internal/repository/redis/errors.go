package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/authkeeper/internal/model"
)

// transientPrefixes are server replies that clear up on their own.
var transientPrefixes = []string{"LOADING", "CLUSTERDOWN", "TRYAGAIN", "MASTERDOWN", "READONLY"}

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
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, redis.ErrPoolTimeout) ||
		errors.Is(err, redis.ErrPoolExhausted) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	for _, prefix := range transientPrefixes {
		if redis.HasErrorPrefix(err, prefix) {
			return true
		}
	}
	return false
}
