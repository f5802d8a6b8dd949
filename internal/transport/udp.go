package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/nazarii-m/dnscore/internal/errs"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// UDPTransport is a unicast UDP transport dialed to one nameserver,
// used for ordinary query/response exchanges.
type UDPTransport struct {
	conn   *net.UDPConn
	pconn4 *ipv4.PacketConn // set when the dialed local address is IPv4
	pconn6 *ipv6.PacketConn // set when the dialed local address is IPv6
	wantIP net.IP           // local address Receive's control message is checked against
}

// NewUDPTransport dials a UDP socket to addr, applying the
// platform-specific socket options from socket_{linux,darwin,windows}.go
// and a generous read buffer for EDNS0-sized responses.
func NewUDPTransport(addr *net.UDPAddr) (*UDPTransport, error) {
	dialer := net.Dialer{Control: PlatformControl}
	conn, err := dialer.Dial("udp", addr.String())
	if err != nil {
		return nil, &errs.TimeoutError{Server: addr.String(), Err: err}
	}
	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("dns: dialed connection is not a *net.UDPConn")
	}
	t := &UDPTransport{conn: udpConn, wantIP: udpConn.LocalAddr().(*net.UDPAddr).IP}
	if err := t.tune(); err != nil {
		_ = udpConn.Close()
		return nil, err
	}
	return t, nil
}

// tune sets the socket's receive buffer and arms the
// golang.org/x/net/ipv4 or ipv6 control-message reporting Receive
// reads back on every datagram, selecting the wrapper by the dialed
// connection's address family.
func (t *UDPTransport) tune() error {
	const wantBuf = 65536
	if t.wantIP.To4() != nil {
		t.pconn4 = ipv4.NewPacketConn(t.conn)
		_ = t.pconn4.SetControlMessage(ipv4.FlagDst, true)
	} else {
		t.pconn6 = ipv6.NewPacketConn(t.conn)
		_ = t.pconn6.SetControlMessage(ipv6.FlagDst, true)
	}
	return t.conn.SetReadBuffer(wantBuf)
}

// Send writes packet to the dialed destination. dest is accepted for
// interface symmetry with TCPTransport but ignored: a UDPTransport is
// always dialed to exactly one peer.
func (t *UDPTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errs.CancelledError{Op: "send udp query"}
	default:
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
		}
	}
	n, err := t.conn.Write(packet)
	if err != nil {
		return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
	}
	if n != len(packet) {
		return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: fmt.Errorf("partial write: %d/%d bytes", n, len(packet))}
	}
	return nil
}

// Receive reads one datagram, respecting ctx's deadline.
func (t *UDPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errs.CancelledError{Op: "receive udp response"}
	default:
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	for {
		n, dst, err := t.readFrom(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
			}
			return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
		}
		// dst is the packet's destination address as reported by the
		// kernel via the ipv4/ipv6 control message armed in tune(); a
		// datagram delivered to this socket but addressed to some
		// other local IP (multi-homed host, racing dial) did not
		// answer this query and is silently skipped in favor of the
		// next read, the same treatment the resolver gives a response
		// whose id, question, or source address mismatches.
		if dst != nil && !dst.Equal(t.wantIP) {
			continue
		}
		result := make([]byte, n)
		copy(result, buffer[:n])
		return result, t.conn.RemoteAddr(), nil
	}
}

// readFrom reads one datagram into buffer via whichever packet-conn
// wrapper tune() armed, returning the destination address from its
// control message (nil if the platform didn't supply one).
func (t *UDPTransport) readFrom(buffer []byte) (int, net.IP, error) {
	if t.pconn4 != nil {
		n, cm, _, err := t.pconn4.ReadFrom(buffer)
		if err != nil {
			return 0, nil, err
		}
		if cm != nil {
			return n, cm.Dst, nil
		}
		return n, nil, nil
	}
	if t.pconn6 != nil {
		n, cm, _, err := t.pconn6.ReadFrom(buffer)
		if err != nil {
			return 0, nil, err
		}
		if cm != nil {
			return n, cm.Dst, nil
		}
		return n, nil, nil
	}
	n, err := t.conn.Read(buffer)
	return n, nil, err
}

// Close releases the socket.
func (t *UDPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

var _ Transport = (*UDPTransport)(nil)
