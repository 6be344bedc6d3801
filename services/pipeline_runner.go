package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/env"
	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
)

/**
 * PipelineRunner 多阶段部署流水线编排器
 * @description
 * - 线性阶段序列，逐个执行，前一阶段成功才进入下一阶段（fail-fast）
 * - 非阻断阶段（lint/test）失败只记录不中止，这是源流程的显式策略
 * - 命令阶段来自pipeline.yaml；停旧实例/部署/健康验证为内置尾部阶段
 * - 阻断失败后剩余阶段记为skipped，运行进入终态并发出失败通知
 * - 不自动重试失败的运行，重试是人工重新触发
 */
type PipelineRunner struct {
	cfg       *config.AppConfig
	spec      *config.PipelineSpec
	lifecycle *LifecycleController
	deployer  Deployer
	notifier  Notifier
	execStage func(ctx context.Context, runID string, st config.StageSpec) (string, error)

	runMu sync.Mutex // 同一时间只允许一个运行，保护binding上的生命周期操作
	mu    sync.Mutex
	runs  []*models.PipelineRun
}

func NewPipelineRunner(cfg *config.AppConfig, spec *config.PipelineSpec, lifecycle *LifecycleController) (*PipelineRunner, error) {
	deployer, err := NewDeployer(cfg.Deploy, lifecycle)
	if err != nil {
		return nil, err
	}
	pr := &PipelineRunner{
		cfg:       cfg,
		spec:      spec,
		lifecycle: lifecycle,
		deployer:  deployer,
		notifier:  NewNotifier(cfg.Deploy.Notify),
	}
	pr.execStage = pr.execCommandStage
	return pr, nil
}

// TriggerBranch 返回允许触发部署的分支
func (pr *PipelineRunner) TriggerBranch() string {
	return pr.cfg.Deploy.Branch
}

/**
 * Run 执行一次完整的流水线
 * @param {string} trigger - 触发方式：manual/webhook
 * @param {string} branch - 触发分支
 * @returns {*models.PipelineRun} 终态的运行记录，完成后不可变
 */
func (pr *PipelineRunner) Run(ctx context.Context, trigger, branch string) *models.PipelineRun {
	pr.runMu.Lock()
	defer pr.runMu.Unlock()

	run := &models.PipelineRun{
		ID:        uuid.NewString(),
		Branch:    branch,
		Trigger:   trigger,
		Outcome:   models.RunPending,
		StartTime: time.Now(),
	}
	pr.addRun(run)
	logger.Infof("Pipeline %s started (trigger: %s, branch: %s)", run.ID, trigger, branch)

	aborted := false
	for _, st := range pr.spec.Stages {
		rec := pr.runCommandStage(ctx, run.ID, st, aborted)
		pr.appendStage(run, rec)
		if rec.Outcome == models.StageFailure && st.IsBlocking() {
			aborted = true
		}
	}

	for _, st := range pr.builtinStages() {
		rec := pr.runBuiltinStage(ctx, st, aborted)
		pr.appendStage(run, rec)
		if rec.Outcome == models.StageFailure {
			aborted = true
		}
	}

	// 终态字段在锁内落定，运行记录同时被API读者并发读取
	pr.mu.Lock()
	run.EndTime = time.Now()
	if aborted {
		run.Outcome = models.RunFailure
	} else {
		run.Outcome = models.RunSuccess
		run.Endpoint = pr.serviceEndpoint()
	}
	pr.mu.Unlock()
	RecordPipelineRun(string(run.Outcome))
	logger.Infof("Pipeline %s finished: %s", run.ID, run.Outcome)
	pr.notifier.Notify(run)
	return run
}

// runCommandStage 执行pipeline.yaml中定义的一个命令阶段
func (pr *PipelineRunner) runCommandStage(ctx context.Context, runID string, st config.StageSpec, aborted bool) models.StageRecord {
	rec := models.StageRecord{Name: st.Name, Blocking: st.IsBlocking()}
	if aborted {
		rec.Outcome = models.StageSkipped
		return rec
	}

	start := time.Now()
	logRef, err := pr.execStage(ctx, runID, st)
	rec.Duration = time.Since(start)
	rec.LogRef = logRef

	if err != nil {
		rec.Outcome = models.StageFailure
		rec.Error = err.Error()
		if st.IsBlocking() {
			logger.Errorf("Stage %s failed, aborting run: %v", st.Name, err)
		} else {
			logger.Warnf("Stage %s failed (best-effort), continuing: %v", st.Name, err)
		}
	} else {
		rec.Outcome = models.StageSuccess
		logger.Infof("Stage %s succeeded in %v", st.Name, rec.Duration)
	}
	RecordStageDuration(st.Name, string(rec.Outcome), rec.Duration.Seconds())
	return rec
}

type builtinStage struct {
	name string
	fn   func(context.Context) error
}

// builtinStages 部署段的内置阶段，全部阻断
func (pr *PipelineRunner) builtinStages() []builtinStage {
	return []builtinStage{
		{"stop-old-instance", pr.lifecycle.Stop},
		{"deploy-new-instance", func(ctx context.Context) error {
			return pr.deployer.Deploy(ctx, pr.cfg.Deploy.Artifact)
		}},
		{"health-check-new-instance", pr.verifyHealth},
	}
}

func (pr *PipelineRunner) runBuiltinStage(ctx context.Context, st builtinStage, aborted bool) models.StageRecord {
	rec := models.StageRecord{Name: st.name, Blocking: true}
	if aborted {
		rec.Outcome = models.StageSkipped
		return rec
	}

	start := time.Now()
	err := st.fn(ctx)
	rec.Duration = time.Since(start)

	if err != nil {
		rec.Outcome = models.StageFailure
		rec.Error = err.Error()
		logger.Errorf("Stage %s failed, aborting run: %v", st.name, err)
	} else {
		rec.Outcome = models.StageSuccess
		logger.Infof("Stage %s succeeded in %v", st.name, rec.Duration)
	}
	RecordStageDuration(st.name, string(rec.Outcome), rec.Duration.Seconds())
	return rec
}

// verifyHealth 对新实例做有界健康轮询，预算与生命周期控制器一致
func (pr *PipelineRunner) verifyHealth(ctx context.Context) error {
	svc := pr.lifecycle.Config()
	res := pr.lifecycle.Checker().Poll(ctx, pr.healthURL(), svc.Health.MaxAttempts, svc.Health.Interval)
	if res.Outcome != models.Healthy {
		return fmt.Errorf("new instance health not confirmed: %s", res.Reason)
	}
	return nil
}

// healthURL SSH目标验证远端主机，本地目标复用控制器的地址
func (pr *PipelineRunner) healthURL() string {
	if pr.cfg.Deploy.Target.Type == "ssh" {
		svc := pr.lifecycle.Config()
		port := svc.Binding.Port
		if port == 0 {
			port = svc.Health.Port
		}
		return fmt.Sprintf("http://%s:%d%s", pr.cfg.Deploy.Target.Host, port, svc.Health.Path)
	}
	return pr.lifecycle.HealthURL()
}

// serviceEndpoint 成功通知里带上可达的服务地址
func (pr *PipelineRunner) serviceEndpoint() string {
	url := pr.healthURL()
	svc := pr.lifecycle.Config()
	return strings.TrimSuffix(url, svc.Health.Path)
}

/**
 * execCommandStage 执行一个命令阶段并把输出写入阶段日志
 * @returns {(string, error)} 日志文件路径和执行错误
 */
func (pr *PipelineRunner) execCommandStage(ctx context.Context, runID string, st config.StageSpec) (string, error) {
	logDir := filepath.Join(env.KeeperDir, "logs", "pipelines", runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create stage log dir: %w", err)
	}
	logRef := filepath.Join(logDir, st.Name+".log")
	logFile, err := os.Create(logRef)
	if err != nil {
		return "", fmt.Errorf("failed to create stage log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, st.Command, st.Args...)
	if st.WorkDir != "" {
		cmd.Dir = st.WorkDir
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		return logRef, fmt.Errorf("stage command failed: %w", err)
	}
	return logRef, nil
}

func (pr *PipelineRunner) addRun(run *models.PipelineRun) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.runs = append(pr.runs, run)
}

// appendStage 阶段记录在锁内追加，注册过的运行记录会被API读者并发读取
func (pr *PipelineRunner) appendStage(run *models.PipelineRun, rec models.StageRecord) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	run.Stages = append(run.Stages, rec)
}

// cloneRun 返回运行记录的独立副本，读者拿到的快照不随运行推进而变化
func cloneRun(run *models.PipelineRun) *models.PipelineRun {
	out := *run
	out.Stages = append([]models.StageRecord(nil), run.Stages...)
	return &out
}

// Runs 返回按触发顺序排列的运行记录快照
func (pr *PipelineRunner) Runs() []*models.PipelineRun {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	out := make([]*models.PipelineRun, len(pr.runs))
	for i, run := range pr.runs {
		out[i] = cloneRun(run)
	}
	return out
}

func (pr *PipelineRunner) GetRun(id string) *models.PipelineRun {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	for _, run := range pr.runs {
		if run.ID == id {
			return cloneRun(run)
		}
	}
	return nil
}
