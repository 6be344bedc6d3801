package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/logger"
)

/**
 * Deployer 把构建产物传输到目标并激活新实例
 * @description
 * - 传输/激活机制（本机执行、SSH推送）按部署目标可替换
 * - Deploy完成表示新实例已被拉起，健康确认由调用方单独验证
 */
type Deployer interface {
	Deploy(ctx context.Context, artifact string) error
}

// NewDeployer 根据目标类型创建部署器
func NewDeployer(cfg config.DeployConfig, lifecycle *LifecycleController) (Deployer, error) {
	switch cfg.Target.Type {
	case "local", "":
		return &LocalDeployer{target: cfg.Target, lifecycle: lifecycle}, nil
	case "ssh":
		if cfg.Target.Host == "" {
			return nil, fmt.Errorf("ssh target requires a host")
		}
		return &SSHDeployer{target: cfg.Target}, nil
	default:
		return nil, fmt.Errorf("unknown deploy target type: %s", cfg.Target.Type)
	}
}

// LocalDeployer 产物复制到目标目录后由生命周期控制器拉起新实例
type LocalDeployer struct {
	target    config.TargetConfig
	lifecycle *LifecycleController
}

func (d *LocalDeployer) Deploy(ctx context.Context, artifact string) error {
	if d.target.Path != "" && artifact != "" {
		dst := filepath.Join(d.target.Path, filepath.Base(artifact))
		if err := copyFile(artifact, dst); err != nil {
			return fmt.Errorf("failed to install artifact: %w", err)
		}
		logger.Infof("Artifact %s installed to %s", artifact, dst)
	}
	id, err := d.lifecycle.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to activate new instance: %w", err)
	}
	logger.Infof("New instance launched locally (instance: %s)", id)
	return nil
}

/**
 * SSHDeployer 通过scp推送产物并在远端执行激活命令
 * @description
 * - scp把产物复制到目标主机路径
 * - 随后通过ssh执行目标配置的激活命令（缺省为目标路径下的restart脚本）
 */
type SSHDeployer struct {
	target config.TargetConfig
	runner func(ctx context.Context, name string, args ...string) error //测试时可替换
}

func (d *SSHDeployer) run(ctx context.Context, name string, args ...string) error {
	if d.runner != nil {
		return d.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *SSHDeployer) Deploy(ctx context.Context, artifact string) error {
	remote := d.target.Host
	if d.target.User != "" {
		remote = d.target.User + "@" + d.target.Host
	}

	if artifact != "" {
		dest := fmt.Sprintf("%s:%s", remote, d.target.Path)
		logger.Infof("Transferring artifact %s to %s", artifact, dest)
		if err := d.run(ctx, "scp", artifact, dest); err != nil {
			return fmt.Errorf("failed to transfer artifact: %w", err)
		}
	}

	command := d.target.Command
	if command == "" {
		command = fmt.Sprintf("cd %s && ./restart.sh", d.target.Path)
	}
	logger.Infof("Activating new instance on %s", remote)
	if err := d.run(ctx, "ssh", remote, command); err != nil {
		return fmt.Errorf("failed to activate new instance: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
