package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"deploy-keeper/internal/models"
)

// RunCommand 外部命令执行函数，测试时可替换
type RunCommand func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

/**
 * Probe 探测binding占用情况
 * @description
 * - Find只读，不改变系统状态
 * - 多个匹配全部返回，由调用方决定是否视为异常
 * - 未找到返回空切片，不是错误
 */
type Probe interface {
	Find(ctx context.Context) ([]string, error)
}

// New 根据binding类型创建对应的探测器
func New(b models.Binding) (Probe, error) {
	switch b.Kind() {
	case models.BindingPort:
		return NewPortProbe(b.Port), nil
	case models.BindingContainer:
		if b.Container == "" {
			return nil, fmt.Errorf("binding has neither port nor container name")
		}
		return NewContainerProbe(b.Container), nil
	default:
		return nil, fmt.Errorf("unsupported binding kind")
	}
}

// PortProbe 通过系统命令查找监听指定TCP端口的进程
type PortProbe struct {
	Port   int
	Runner RunCommand
}

func NewPortProbe(port int) *PortProbe {
	return &PortProbe{Port: port, Runner: defaultRunner}
}

func (p *PortProbe) Find(ctx context.Context) ([]string, error) {
	return findPortListeners(ctx, p.Runner, p.Port)
}

// ContainerProbe 通过docker命令按名称查找运行中的容器
type ContainerProbe struct {
	Name   string
	Runner RunCommand
}

func NewContainerProbe(name string) *ContainerProbe {
	return &ContainerProbe{Name: name, Runner: defaultRunner}
}

/**
 * Find 查找名称匹配的运行中容器
 * @returns {([]string, error)} 匹配的容器ID列表，未找到返回空
 * @description
 * - 使用docker ps按名称过滤，锚定全名避免前缀误匹配
 * - docker不可用视为错误（与"未找到"区分）
 */
func (p *ContainerProbe) Find(ctx context.Context) ([]string, error) {
	out, err := p.Runner(ctx, "docker", "ps", "-q", "--filter", fmt.Sprintf("name=^%s$", p.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return splitLines(out), nil
}

// splitLines 按行切分命令输出，丢弃空行
func splitLines(out []byte) []string {
	var ids []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	return ids
}
