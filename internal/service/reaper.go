package service

import (
	"context"
	"time"

	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// Reaper periodically removes expired ledger records. Reads already ignore
// them, so a missed sweep only costs storage.
type Reaper struct {
	store    model.RefreshTokenStore
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// DefaultReapInterval replaces a non-positive sweep interval.
const DefaultReapInterval = time.Hour

func NewReaper(store model.RefreshTokenStore, interval, timeout time.Duration, logger *logger.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{
		store:    store,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes records expired at the current time and returns how many were removed.
func (r *Reaper) SweepOnce(ctx context.Context) int64 {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		r.logger.Error("Reaper: failed to delete expired refresh tokens",
			"error", err.Error())
		return 0
	}
	if n > 0 {
		r.logger.Info("Reaper: deleted expired refresh tokens",
			"count", n)
	}
	return n
}
