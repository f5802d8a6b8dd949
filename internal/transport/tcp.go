package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	"github.com/nazarii-m/dnscore/internal/errs"
)

// TCPTransport implements the RFC 1035 §4.2.2 length-prefixed framing
// used for the retry after a truncated (TC) UDP response, and for
// queries too large for UDP.
type TCPTransport struct {
	conn net.Conn
}

// NewTCPTransport dials addr over TCP.
func NewTCPTransport(ctx context.Context, addr *net.TCPAddr) (*TCPTransport, error) {
	dialer := net.Dialer{Control: PlatformControl}
	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, &errs.TimeoutError{Server: addr.String(), Err: err}
	}
	return &TCPTransport{conn: conn}, nil
}

// Send writes packet prefixed with its 2-byte length. dest is ignored:
// a TCPTransport is dialed to exactly one peer.
func (t *TCPTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	if len(packet) > 0xFFFF {
		return &errs.PolicyError{Limit: "tcp-message-length", Msg: "message exceeds 65535-byte TCP length prefix"}
	}
	select {
	case <-ctx.Done():
		return &errs.CancelledError{Op: "send tcp query"}
	default:
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
		}
	}
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(packet)))
	if _, err := t.conn.Write(prefix[:]); err != nil {
		return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
	}
	if _, err := t.conn.Write(packet); err != nil {
		return &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
	}
	return nil
}

// Receive reads one length-prefixed message.
func (t *TCPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errs.CancelledError{Op: "receive tcp response"}
	default:
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
		}
	}
	var prefix [2]byte
	if _, err := io.ReadFull(t.conn, prefix[:]); err != nil {
		return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
	}
	msgLen := binary.BigEndian.Uint16(prefix[:])
	buf := make([]byte, msgLen)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, nil, &errs.TimeoutError{Server: t.conn.RemoteAddr().String(), Err: err}
	}
	return buf, t.conn.RemoteAddr(), nil
}

// Close closes the stream socket.
func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

var _ Transport = (*TCPTransport)(nil)
