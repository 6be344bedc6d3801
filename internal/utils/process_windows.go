//go:build windows

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// SetNewPG 设置进程属性，使子进程在父进程退出后继续运行
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

/**
 * SendSignal Windows下的信号模拟
 * @description
 * - Windows没有POSIX信号，SIGTERM用taskkill请求进程退出
 * - SIGKILL用taskkill /F强制结束
 */
func SendSignal(pid int, name string) error {
	switch strings.ToUpper(name) {
	case "SIGKILL", "KILL":
		return exec.Command("taskkill", "/F", "/PID", strconv.Itoa(pid)).Run()
	case "SIGTERM", "TERM", "SIGINT", "INT":
		return exec.Command("taskkill", "/PID", strconv.Itoa(pid)).Run()
	default:
		return fmt.Errorf("unknown signal name: %s", name)
	}
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	// Windows上FindProcess成功即表示拿到了进程句柄
	process.Release()
	return true, nil
}
