// Package server provides the listeners the API and health servers run on.
package server

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dtroode/authkeeper/internal/model"
)

var (
	_ model.SecurityLayer = (*TLSListener)(nil)
	_ model.SecurityLayer = (*PlainListener)(nil)
)

// TLSListener opens TLS listeners from a certificate and key on disk.
type TLSListener struct {
	certFileName       string
	privateKeyFileName string
	nextProtos         []string
}

// NewTLSListener creates a TLSListener. nextProtos are advertised through ALPN;
// the gRPC server needs "h2".
func NewTLSListener(certFileName, privateKeyFileName string, nextProtos ...string) *TLSListener {
	return &TLSListener{
		certFileName:       certFileName,
		privateKeyFileName: privateKeyFileName,
		nextProtos:         nextProtos,
	}
}

// Listen loads the key pair on every call so a restarted server picks up a renewed certificate.
func (l *TLSListener) Listen(network, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFileName, l.privateKeyFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return tls.Listen(network, addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   l.nextProtos,
	})
}

// PlainListener opens unencrypted TCP listeners.
type PlainListener struct{}

func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

func (l *PlainListener) Listen(network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}

// NewSecurityLayer picks TLS when enableTLS is set and plain TCP otherwise.
func NewSecurityLayer(enableTLS bool, certFileName, privateKeyFileName string, nextProtos ...string) model.SecurityLayer {
	if enableTLS {
		return NewTLSListener(certFileName, privateKeyFileName, nextProtos...)
	}
	return NewPlainListener()
}
