package services

import (
	"context"
	"time"

	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
)

/**
 * Watcher 服务器模式下周期巡检被管服务
 * @description
 * - 只观测和记录，不做自动恢复：健康预算之外没有自动重试，
 *   恢复动作由操作员通过start/restart显式触发
 */
type Watcher struct {
	lifecycle *LifecycleController
	interval  time.Duration
}

func NewWatcher(lifecycle *LifecycleController, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Watcher{lifecycle: lifecycle, interval: interval}
}

func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkOnce(ctx)
		}
	}
}

func (w *Watcher) checkOnce(ctx context.Context) {
	detail, err := w.lifecycle.Status(ctx)
	if err != nil {
		logger.Errorf("Service monitoring error: %v", err)
		return
	}
	if detail.Status == models.StatusAbsent {
		logger.Debugf("Service [%s] is not running", detail.Name)
		return
	}
	if !detail.Healthy {
		logger.Errorf("Service [%s] is unhealthy (instance: %s)", detail.Name, detail.ID)
	}
}
