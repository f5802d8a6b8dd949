//go:build linux

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketOptions configures SO_REUSEADDR and a tuned receive buffer
// for a resolver's outbound query socket on Linux. SO_REUSEADDR lets
// back-to-back retries rebind a just-released local port without
// waiting out TIME_WAIT.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, socketRecvBuf); err != nil {
		return fmt.Errorf("failed to set SO_RCVBUF: %w", err)
	}
	return nil
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockoptErr error
	err := c.Control(func(fd uintptr) {
		sockoptErr = setSocketOptions(fd)
	})
	if err != nil {
		return fmt.Errorf("raw conn control failed: %w", err)
	}
	return sockoptErr
}

// PlatformControl is the platform-specific net.Dialer.Control hook
// used by NewUDPTransport and NewTCPTransport.
func PlatformControl(network, address string, c syscall.RawConn) error {
	return platformControl(network, address, c)
}
