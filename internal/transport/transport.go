// Package transport implements the resolver's network I/O: UDP and
// TCP unicast transports to nameservers, socket option tuning per
// platform, and a receive-buffer pool.
package transport

import (
	"context"
	"net"
)

// Transport sends and receives whole DNS messages to/from one
// nameserver. Implementations own exactly one underlying socket and
// are not safe for concurrent use; the resolver dials one per
// attempt.
type Transport interface {
	Send(ctx context.Context, packet []byte, dest net.Addr) error
	Receive(ctx context.Context) ([]byte, net.Addr, error)
	Close() error
}
