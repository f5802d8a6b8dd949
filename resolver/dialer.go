package resolver

import (
	"context"
	"net"

	"github.com/nazarii-m/dnscore/internal/transport"
)

// Dialer opens a transport to one nameserver address. The resolver
// dials a fresh transport per attempt rather than holding one
// long-lived socket, since a single recursive resolution may talk to
// many distinct nameservers (root, TLD, authoritative).
type Dialer interface {
	DialUDP(ctx context.Context, addr *net.UDPAddr) (transport.Transport, error)
	DialTCP(ctx context.Context, addr *net.TCPAddr) (transport.Transport, error)
}

// defaultDialer dials real UDP/TCP sockets via internal/transport.
type defaultDialer struct{}

func (defaultDialer) DialUDP(_ context.Context, addr *net.UDPAddr) (transport.Transport, error) {
	return transport.NewUDPTransport(addr)
}

func (defaultDialer) DialTCP(ctx context.Context, addr *net.TCPAddr) (transport.Transport, error) {
	return transport.NewTCPTransport(ctx, addr)
}
