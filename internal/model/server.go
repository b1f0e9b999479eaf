package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners, either plain TCP or TLS.
type SecurityLayer interface {
	Listen(network, addr string) (net.Listener, error)
}

// Server is a long-running network server: the HTTP API or the gRPC health service.
type Server interface {
	Name() string
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
