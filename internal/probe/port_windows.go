//go:build windows

package probe

import (
	"context"
	"fmt"
	"strings"
)

/**
 * findPortListeners 查找监听指定端口的进程PID（Windows）
 * @description
 * - 解析netstat -ano输出，匹配LISTENING状态的本地端口
 * - 同一进程的多条记录（IPv4/IPv6）去重
 */
func findPortListeners(ctx context.Context, runner RunCommand, port int) ([]string, error) {
	out, err := runner(ctx, "netstat", "-ano", "-p", "tcp")
	if err != nil {
		return nil, fmt.Errorf("failed to probe port %d: %w", port, err)
	}
	return parseNetstat(out, port), nil
}

func parseNetstat(out []byte, port int) []string {
	suffix := fmt.Sprintf(":%d", port)
	seen := map[string]bool{}
	var pids []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// Proto Local Foreign State PID
		if len(fields) < 5 || !strings.EqualFold(fields[0], "tcp") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		if !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		pid := fields[4]
		if !seen[pid] {
			seen[pid] = true
			pids = append(pids, pid)
		}
	}
	return pids
}
