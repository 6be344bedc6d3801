package server

import (
	"net"
	"os"
	"path/filepath"
	"runtime"

	"deploy-keeper/internal/logger"
)

type ListenAddr struct {
	Network string
	Address string
}

/**
 * Test if the system supports Unix socket network type
 * @returns {bool} Returns true if Unix socket is supported, false otherwise
 * @description
 * - Non-Windows platforms always support unix sockets
 * - On Windows, creates a temporary Unix socket to test system support
 * - Cleans up test socket file after testing
 */
func IsUnixSocketSupported() bool {
	if runtime.GOOS != "windows" { //windows,linux,darwin
		return true
	}
	testSocketPath := filepath.Join(os.TempDir(), "test_unix_socket.sock")
	os.Remove(testSocketPath)

	listener, err := net.Listen("unix", testSocketPath)
	if err != nil {
		return false
	}
	listener.Close()
	os.Remove(testSocketPath)
	return true
}

/**
 * Create listeners for the given addresses
 * @param {[]ListenAddr} addrs - Listener addresses (network + address pairs)
 * @returns {[]net.Listener} Array of created listeners
 * @returns {error} Last error if any listener creation fails
 * @description
 * - Removes stale unix socket files before binding
 * - Keeps going after individual failures so a busy TCP port does not
 *   take down the unix socket (and vice versa)
 */
func CreateListeners(addrs []ListenAddr) ([]net.Listener, error) {
	var listeners []net.Listener

	var lastErr error
	for _, addr := range addrs {
		if addr.Network == "unix" {
			if err := os.Remove(addr.Address); err != nil && !os.IsNotExist(err) {
				logger.Errorf("Failed to remove existing socket file: %v", err)
				continue
			}
		}
		listener, err := net.Listen(addr.Network, addr.Address)
		if err != nil {
			logger.Errorf("Failed to create listener on %s://%s: %v", addr.Network, addr.Address, err)
			lastErr = err
			continue
		}
		if addr.Network == "unix" {
			os.Chmod(addr.Address, 0777)
		}
		listeners = append(listeners, listener)
	}
	return listeners, lastErr
}
