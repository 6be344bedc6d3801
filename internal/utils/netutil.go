package utils

import (
	"fmt"
	"net"
	"time"
)

// CheckPortConnectable 检查localhost上的端口是否可连接（有服务在监听）
func CheckPortConnectable(host string, port int) bool {
	timeout := time.Second
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return false
	}
	if conn != nil {
		conn.Close()
		return true
	}
	return false
}

// CheckPortAvailable 检查端口是否空闲（没有服务在监听）
func CheckPortAvailable(port int) bool {
	return !CheckPortConnectable("localhost", port)
}
