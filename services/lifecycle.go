package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/env"
	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
	"deploy-keeper/internal/probe"
	"deploy-keeper/internal/utils"
)

/**
 * LifecycleController 管理一个binding上服务实例的生命周期
 * @description
 * - 状态机：absent -> starting -> running -> stopping -> stopped(=absent)
 * - 同一binding同一时刻最多一个存活实例
 * - 所有操作顺序执行，stop确认binding释放后start才会进行
 * - 同一binding的并发操作不在保护范围内（已知缺口）
 */
type LifecycleController struct {
	cfg     config.ServiceConfig
	probe   probe.Probe
	checker *HealthChecker

	// 可注入的外部动作，测试时替换
	launch    func(ctx context.Context) (string, error)
	terminate func(ctx context.Context, id, signal string) error
	sleep     func(time.Duration)
}

type launchArgs struct {
	Port    int
	Name    string
	WorkDir string
}

func NewLifecycleController(cfg config.ServiceConfig) (*LifecycleController, error) {
	p, err := probe.New(cfg.Binding)
	if err != nil {
		return nil, fmt.Errorf("invalid binding for service %s: %w", cfg.Name, err)
	}
	lc := &LifecycleController{
		cfg:     cfg,
		probe:   p,
		checker: NewHealthChecker(cfg.Health.RequestTimeout),
		sleep:   time.Sleep,
	}
	lc.launch = lc.launchInstance
	lc.terminate = lc.terminateInstance
	return lc, nil
}

// HealthURL 构造被管服务的健康检查地址
func (lc *LifecycleController) HealthURL() string {
	port := lc.cfg.Binding.Port
	if port == 0 {
		port = lc.cfg.Health.Port
	}
	return fmt.Sprintf("http://%s:%d%s", lc.cfg.Host, port, lc.cfg.Health.Path)
}

/**
 * Start 启动服务实例
 * @param {context.Context} ctx - 取消控制
 * @param {bool} replace - binding被占用时是否先停掉旧实例
 * @returns {(*models.InstanceState, error)} 启动后的实例状态
 * @description
 * - binding已被占用且未要求replace时返回ErrAlreadyRunning
 * - 拉起进程后轮询健康端点，确认后进入running
 * - 健康预算耗尽时实例保持运行，返回ErrStartUnconfirmed由调用方决策
 */
func (lc *LifecycleController) Start(ctx context.Context, replace bool) (*models.InstanceState, error) {
	ids, err := lc.probe.Find(ctx)
	if err != nil {
		RecordLifecycleOp("start", "error")
		return nil, fmt.Errorf("failed to probe %s: %w", lc.cfg.Binding, err)
	}
	if len(ids) > 0 {
		if !replace {
			RecordLifecycleOp("start", "already_running")
			return nil, fmt.Errorf("%w: %s held by [%s]",
				models.ErrAlreadyRunning, lc.cfg.Binding, strings.Join(ids, ","))
		}
		logger.Infof("Binding %s occupied by [%s], stopping before start", lc.cfg.Binding, strings.Join(ids, ","))
		if err := lc.Stop(ctx); err != nil {
			RecordLifecycleOp("start", "error")
			return nil, err
		}
	}

	state := &models.InstanceState{
		Name:      lc.cfg.Name,
		Binding:   lc.cfg.Binding,
		Status:    models.StatusStarting,
		StartTime: time.Now().Format(time.RFC3339),
	}
	id, err := lc.launch(ctx)
	if err != nil {
		RecordLifecycleOp("start", "error")
		return nil, fmt.Errorf("failed to launch %s: %w", lc.cfg.Name, err)
	}
	state.ID = id
	lc.saveState(state)
	logger.Infof("Service %s launched (instance: %s), waiting for health confirmation", lc.cfg.Name, id)

	res := lc.checker.Poll(ctx, lc.HealthURL(), lc.cfg.Health.MaxAttempts, lc.cfg.Health.Interval)
	if res.Outcome != models.Healthy {
		// 进程存在但健康未确认：实例保留运行，错误上报但不致命
		RecordLifecycleOp("start", "unconfirmed")
		return state, fmt.Errorf("%w: %s", models.ErrStartUnconfirmed, res.Reason)
	}

	if state.ID == "" {
		// 容器类启动命令先退出再由运行时拉起实例，此时重新探测拿ID
		if ids, err := lc.probe.Find(ctx); err == nil && len(ids) > 0 {
			state.ID = ids[0]
		}
	}
	state.Status = models.StatusRunning
	lc.saveState(state)
	RecordLifecycleOp("start", "success")
	logger.Infof("Service %s is running (instance: %s, %d health attempts)", lc.cfg.Name, state.ID, res.Attempts)
	return state, nil
}

/**
 * Stop 停止binding上的实例
 * @description
 * - binding空闲时是幂等的no-op，返回成功
 * - 按升级阶梯逐级发送信号：先优雅终止，等待宽限期复查，仍存活再强制终止
 * - 走完阶梯仍未释放binding返回ErrStopFailed，需要人工介入
 */
func (lc *LifecycleController) Stop(ctx context.Context) error {
	ids, err := lc.probe.Find(ctx)
	if err != nil {
		RecordLifecycleOp("stop", "error")
		return fmt.Errorf("failed to probe %s: %w", lc.cfg.Binding, err)
	}
	if len(ids) == 0 {
		logger.Infof("Binding %s is already free, nothing to stop", lc.cfg.Binding)
		RecordLifecycleOp("stop", "noop")
		lc.clearState()
		return nil
	}

	lc.markStopping(ids[0])
	for _, step := range lc.cfg.Escalation {
		logger.Infof("Sending %s to [%s] on %s, waiting %v", step.Signal, strings.Join(ids, ","), lc.cfg.Binding, step.Wait)
		for _, id := range ids {
			if err := lc.terminate(ctx, id, step.Signal); err != nil {
				logger.Warnf("Failed to send %s to instance %s: %v", step.Signal, id, err)
			}
		}
		lc.sleep(step.Wait)

		ids, err = lc.probe.Find(ctx)
		if err != nil {
			RecordLifecycleOp("stop", "error")
			return fmt.Errorf("failed to re-probe %s: %w", lc.cfg.Binding, err)
		}
		if len(ids) == 0 {
			logger.Infof("Binding %s released", lc.cfg.Binding)
			RecordLifecycleOp("stop", "success")
			lc.clearState()
			return nil
		}
	}

	RecordLifecycleOp("stop", "failed")
	return fmt.Errorf("%w: %s still held by [%s]",
		models.ErrStopFailed, lc.cfg.Binding, strings.Join(ids, ","))
}

/**
 * Restart 重启实例
 * @description
 * - stop失败时中止，绝不在旧实例可能仍占用binding时启动新实例
 */
func (lc *LifecycleController) Restart(ctx context.Context) (*models.InstanceState, error) {
	if err := lc.Stop(ctx); err != nil {
		RecordLifecycleOp("restart", "aborted")
		return nil, fmt.Errorf("restart aborted: %w", err)
	}
	state, err := lc.Start(ctx, false)
	if err != nil {
		RecordLifecycleOp("restart", "error")
		return state, err
	}
	RecordLifecycleOp("restart", "success")
	return state, nil
}

// Status 探测binding并做一次快速健康检查
func (lc *LifecycleController) Status(ctx context.Context) (*models.InstanceDetail, error) {
	detail := &models.InstanceDetail{
		InstanceState: models.InstanceState{
			Name:    lc.cfg.Name,
			Binding: lc.cfg.Binding,
			Status:  models.StatusAbsent,
		},
		HealthURL: lc.HealthURL(),
	}
	ids, err := lc.probe.Find(ctx)
	if err != nil {
		// 探测命令不可用时退化为端口连通性检查，此时拿不到实例ID
		if lc.cfg.Binding.Kind() != models.BindingPort {
			return nil, fmt.Errorf("failed to probe %s: %w", lc.cfg.Binding, err)
		}
		logger.Warnf("Probe on %s failed (%v), falling back to connect check", lc.cfg.Binding, err)
		if !utils.CheckPortConnectable(lc.cfg.Host, lc.cfg.Binding.Port) {
			return detail, nil
		}
		ids = []string{""}
	}
	if len(ids) == 0 {
		return detail, nil
	}
	detail.ID = ids[0]
	detail.Status = models.StatusRunning
	if cached, err := lc.loadState(); err == nil && cached.ID == detail.ID {
		detail.StartTime = cached.StartTime
	}

	res := lc.checker.Poll(ctx, lc.HealthURL(), 1, 0)
	detail.Healthy = res.Outcome == models.Healthy
	detail.LastChecked = time.Now()
	return detail, nil
}

// Launch 只拉起实例，不做健康确认，部署器在激活新制品时使用
func (lc *LifecycleController) Launch(ctx context.Context) (string, error) {
	return lc.launch(ctx)
}

// Checker 暴露健康检查器，流水线的验证阶段复用同一份预算配置
func (lc *LifecycleController) Checker() *HealthChecker {
	return lc.checker
}

func (lc *LifecycleController) Config() config.ServiceConfig {
	return lc.cfg
}

/**
 * launchInstance 按配置的命令模板拉起实例
 * @description
 * - 渲染命令模板后以独立进程组启动，实例不随keeper退出
 * - 输出重定向到keeper日志目录下的服务日志
 * - 端口绑定返回PID；容器绑定启动命令先行退出，返回空ID由探测补全
 */
func (lc *LifecycleController) launchInstance(ctx context.Context) (string, error) {
	args := launchArgs{
		Port:    lc.cfg.Binding.Port,
		Name:    lc.cfg.Name,
		WorkDir: lc.cfg.WorkDir,
	}
	command, cmdArgs, err := utils.GetCommandLine(lc.cfg.Command, lc.cfg.Args, args)
	if err != nil {
		return "", err
	}
	logger.Infof("Executing command: %s %s", command, strings.Join(cmdArgs, " "))

	cmd := exec.Command(command, cmdArgs...)
	if lc.cfg.WorkDir != "" {
		cmd.Dir = lc.cfg.WorkDir
	}
	if out := lc.openServiceLog(); out != nil {
		cmd.Stdout = out
		cmd.Stderr = out
		// 子进程持有自己的文件句柄副本，父进程这份用完即关，避免句柄泄漏
		defer out.Close()
	}
	utils.SetNewPG(cmd)

	if lc.cfg.Binding.Kind() == models.BindingContainer {
		// 启动命令本身会退出（如docker run -d），等待其完成即可
		if err := cmd.Run(); err != nil {
			return "", err
		}
		return "", nil
	}

	if err := cmd.Start(); err != nil {
		return "", err
	}
	pid := cmd.Process.Pid
	// 释放句柄但不等待，进程已脱离keeper独立运行
	go cmd.Wait()
	return strconv.Itoa(pid), nil
}

// terminateInstance 向实例发送终止信号，端口绑定走系统信号，容器绑定走docker命令
func (lc *LifecycleController) terminateInstance(ctx context.Context, id, signal string) error {
	if lc.cfg.Binding.Kind() == models.BindingContainer {
		action := "stop"
		if strings.EqualFold(signal, "SIGKILL") || strings.EqualFold(signal, "KILL") {
			action = "kill"
		}
		return exec.CommandContext(ctx, "docker", action, id).Run()
	}
	pid, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid instance id %q: %w", id, err)
	}
	// 进程在探测和发信号之间自行退出，不算失败
	if running, err := utils.IsProcessRunning(pid); err == nil && !running {
		return nil
	}
	return utils.SendSignal(pid, signal)
}

func (lc *LifecycleController) openServiceLog() *os.File {
	logDir := filepath.Join(env.KeeperDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil
	}
	file, err := os.OpenFile(filepath.Join(logDir, lc.cfg.Name+".out"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return file
}

func (lc *LifecycleController) markStopping(id string) {
	state, err := lc.loadState()
	if err != nil {
		state = &models.InstanceState{Name: lc.cfg.Name, Binding: lc.cfg.Binding, ID: id}
	}
	state.Status = models.StatusStopping
	lc.saveState(state)
}

// saveState 实例状态落盘，keeper重启后可以恢复最近一次的实例信息
func (lc *LifecycleController) saveState(state *models.InstanceState) {
	cacheDir := filepath.Join(env.KeeperDir, "cache", "instances")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.Errorf("Service [%s] save state failed, error: %v", lc.cfg.Name, err)
		return
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		logger.Errorf("Service [%s] save state failed, error: %v", lc.cfg.Name, err)
		return
	}
	cacheFile := filepath.Join(cacheDir, lc.cfg.Name+".json")
	if err := os.WriteFile(cacheFile, jsonData, 0644); err != nil {
		logger.Errorf("Service [%s] save state failed, error: %v", lc.cfg.Name, err)
		return
	}
	logger.Debugf("Service [%s] state saved to %s", lc.cfg.Name, cacheFile)
}

func (lc *LifecycleController) loadState() (*models.InstanceState, error) {
	cacheFile := filepath.Join(env.KeeperDir, "cache", "instances", lc.cfg.Name+".json")
	jsonData, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, err
	}
	var state models.InstanceState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return nil, err
	}
	if state.Name != lc.cfg.Name {
		return nil, fmt.Errorf("state file name mismatch: %s", state.Name)
	}
	return &state, nil
}

func (lc *LifecycleController) clearState() {
	cacheFile := filepath.Join(env.KeeperDir, "cache", "instances", lc.cfg.Name+".json")
	if err := os.Remove(cacheFile); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Service [%s] clear state failed: %v", lc.cfg.Name, err)
	}
}
