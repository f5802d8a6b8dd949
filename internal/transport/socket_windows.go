//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// setSocketOptions configures SO_REUSEADDR and a tuned receive buffer
// on Windows. SO_REUSEPORT has no Windows equivalent and is not set.
func setSocketOptions(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF, socketRecvBuf); err != nil {
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
