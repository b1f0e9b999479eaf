package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/authkeeper/internal/logger"
)

// Service is the name under which the auth API reports its status. The empty
// name reports overall server health.
const Service = "authkeeper.Auth"

// DefaultInterval replaces a non-positive check interval.
const DefaultInterval = 10 * time.Second

// Pinger is a dependency the auth API cannot serve without.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker polls dependencies and publishes the result through the gRPC health service.
type Checker struct {
	server   *health.Server
	deps     map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

// NewChecker creates a checker. Status stays NOT_SERVING until the first check passes.
func NewChecker(server *health.Server, deps map[string]Pinger, interval, timeout time.Duration, logger *logger.Logger) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Checker{
		server:   server,
		deps:     deps,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run checks dependencies every interval until ctx is done, then marks the
// server as shutting down.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

// CheckOnce pings every dependency and reports whether all of them answered.
func (c *Checker) CheckOnce(ctx context.Context) bool {
	healthy := true
	for name, dep := range c.deps {
		pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := dep.Ping(pingCtx)
		cancel()
		if err != nil {
			healthy = false
			c.logger.Warn("Health checker: dependency is down",
				"dependency", name,
				"error", err.Error())
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(Service, status)

	return healthy
}
