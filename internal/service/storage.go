package service

import (
	"context"
	"errors"
	"time"

	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/model"
)

// withTimeout bounds a single storage call. A non-positive timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storageFailure maps a storage error to an API error. Repositories tag
// driver, network and timeout failures with model.ErrUnavailable; anything
// else, such as a record that cannot be decoded, is an internal error.
func storageFailure(err error) error {
	if errors.Is(err, model.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewErrStorageUnavailable(err)
	}
	return apierrors.NewErrInternalServerError(err)
}
