//go:build unix || linux || darwin

package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

/**
 * findPortListeners 查找监听指定端口的进程PID（Linux/macOS）
 * @description
 * - 使用lsof -t只输出PID，兼容Linux和Darwin
 * - lsof在无匹配时以退出码1结束，这是正常的"未找到"，不是错误
 */
func findPortListeners(ctx context.Context, runner RunCommand, port int) ([]string, error) {
	out, err := runner(ctx, "lsof", "-t", "-i", fmt.Sprintf("tcp:%d", port), "-s", "TCP:LISTEN")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// 退出码非0且无输出：端口上没有监听者
			return nil, nil
		}
		return nil, fmt.Errorf("failed to probe port %d: %w", port, err)
	}

	var pids []string
	for _, line := range splitLines(out) {
		if _, err := strconv.Atoi(line); err != nil {
			continue
		}
		pids = append(pids, line)
	}
	return pids, nil
}
