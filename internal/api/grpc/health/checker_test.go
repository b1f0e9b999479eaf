package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/authkeeper/internal/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func status(t *testing.T, hs *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestChecker_StartsNotServing(t *testing.T) {
	hs := health.NewServer()
	NewChecker(hs, nil, time.Second, time.Second, testutil.MakeNoopLogger())

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, hs, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, hs, Service))
}

func TestChecker_CheckOnce(t *testing.T) {
	hs := health.NewServer()
	var ledgerErr error
	c := NewChecker(hs, map[string]Pinger{
		"users":  pingFunc(func(context.Context) error { return nil }),
		"ledger": pingFunc(func(context.Context) error { return ledgerErr }),
	}, time.Second, time.Second, testutil.MakeNoopLogger())

	assert.True(t, c.CheckOnce(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, hs, Service))

	ledgerErr = errors.New("connection refused")
	assert.False(t, c.CheckOnce(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, hs, Service))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, hs, ""))

	ledgerErr = nil
	assert.True(t, c.CheckOnce(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, hs, ""))
}

func TestChecker_PingIsBoundedByTimeout(t *testing.T) {
	hs := health.NewServer()
	c := NewChecker(hs, map[string]Pinger{
		"slow": pingFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}, time.Second, 20*time.Millisecond, testutil.MakeNoopLogger())

	assert.False(t, c.CheckOnce(context.Background()))
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	hs := health.NewServer()
	c := NewChecker(hs, map[string]Pinger{
		"users": pingFunc(func(context.Context) error { return nil }),
	}, 10*time.Millisecond, time.Second, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return status(t, hs, Service) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("checker did not stop")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, hs, Service))
}

func TestChecker_ZeroIntervalFallsBack(t *testing.T) {
	hs := health.NewServer()
	c := NewChecker(hs, nil, 0, time.Second, testutil.MakeNoopLogger())
	assert.Equal(t, DefaultInterval, c.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() { c.Run(ctx) })
}
