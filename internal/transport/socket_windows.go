//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// setSocketOptions configures SO_REUSEADDR and SO_BROADCAST on Windows.
//
// Windows SO_REUSEADDR semantics differ from POSIX (it permits multiple
// binds to the same port rather than just reuse of TIME_WAIT sockets); we
// still set it for parity with the other platforms' rebind behavior.
func setSocketOptions(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1); err != nil {
		return fmt.Errorf("failed to set SO_BROADCAST: %w", err)
	}
	return nil
}

// platformControl is called by net.ListenConfig during socket creation.
func platformControl(network, address string, c syscall.RawConn) error {
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
