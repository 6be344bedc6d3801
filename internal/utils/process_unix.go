//go:build unix || linux || darwin

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// SetNewPG 设置进程属性，使子进程在父进程退出后继续运行
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// SignalFromName 将配置中的信号名转换为系统信号
func SignalFromName(name string) (syscall.Signal, error) {
	switch strings.ToUpper(name) {
	case "SIGTERM", "TERM":
		return syscall.SIGTERM, nil
	case "SIGKILL", "KILL":
		return syscall.SIGKILL, nil
	case "SIGINT", "INT":
		return syscall.SIGINT, nil
	case "SIGHUP", "HUP":
		return syscall.SIGHUP, nil
	case "SIGQUIT", "QUIT":
		return syscall.SIGQUIT, nil
	default:
		return 0, fmt.Errorf("unknown signal name: %s", name)
	}
}

/**
 * SendSignal 向指定PID发送命名信号
 * @param {int} pid - 目标进程ID
 * @param {string} name - 信号名（SIGTERM/SIGKILL/...）
 * @returns {error} 进程不存在或无权限时返回错误
 */
func SendSignal(pid int, name string) error {
	sig, err := SignalFromName(name)
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process with PID %d: %w", pid, err)
	}
	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to send %s to process %d: %w", strings.ToUpper(name), pid, err)
	}
	return nil
}

// IsProcessRunning 检查进程是否正在运行（发送signal 0探测）
func IsProcessRunning(pid int) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}
