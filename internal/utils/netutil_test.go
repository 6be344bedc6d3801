package utils

import (
	"net"
	"testing"
)

/**
 * Test port connectability check against a real listener
 * @param {*testing.T} t - Testing framework instance
 */
func TestCheckPortConnectable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if !CheckPortConnectable("127.0.0.1", port) {
		t.Errorf("port %d has a listener but was reported unreachable", port)
	}
	if CheckPortAvailable(port) {
		t.Errorf("port %d has a listener but was reported available", port)
	}
}

func TestCheckPortAvailable(t *testing.T) {
	// 先占用一个临时端口再释放，拿到一个大概率空闲的端口号
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	if !CheckPortAvailable(port) {
		t.Errorf("port %d is free but was reported occupied", port)
	}
}
