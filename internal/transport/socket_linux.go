//go:build linux

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketOptions configures SO_REUSEADDR and SO_BROADCAST on Linux.
// SO_BROADCAST is required to send to a directed broadcast address
// (the bcast backend); SO_REUSEADDR lets successive transactions
// rebind quickly without waiting out TIME_WAIT.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
		return fmt.Errorf("failed to set SO_BROADCAST: %w", err)
	}
	return nil
}

// platformControl is called by net.ListenConfig during socket creation.
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

// PlatformControl exposes the platform-specific control function for callers
// that build their own net.ListenConfig.
func PlatformControl(network, address string, c syscall.RawConn) error {
	return platformControl(network, address, c)
}
