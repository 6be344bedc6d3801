package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
)

// Notifier 流水线终态通知
type Notifier interface {
	Notify(run *models.PipelineRun)
}

// NewNotifier 按配置组合通知器，日志通知始终开启
func NewNotifier(cfg config.NotifyConfig) Notifier {
	notifiers := []Notifier{&LogNotifier{}}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &WebhookNotifier{
			URL:    cfg.WebhookURL,
			client: &http.Client{Timeout: 5 * time.Second},
		})
	}
	return multiNotifier(notifiers)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(run *models.PipelineRun) {
	for _, n := range m {
		n.Notify(run)
	}
}

// LogNotifier 把流水线结果写进keeper日志
type LogNotifier struct{}

func (n *LogNotifier) Notify(run *models.PipelineRun) {
	if run.Outcome == models.RunSuccess {
		logger.Infof("Pipeline %s succeeded, service reachable at %s", run.ID, run.Endpoint)
		return
	}
	failed := "unknown"
	for _, st := range run.Stages {
		if st.Outcome == models.StageFailure && st.Blocking {
			failed = st.Name
			break
		}
	}
	logger.Errorf("Pipeline %s failed at stage %s", run.ID, failed)
}

// WebhookNotifier 把完整运行记录POST到配置的地址
type WebhookNotifier struct {
	URL    string
	client *http.Client
}

func (n *WebhookNotifier) Notify(run *models.PipelineRun) {
	payload, err := json.Marshal(run)
	if err != nil {
		logger.Errorf("Failed to encode pipeline notification: %v", err)
		return
	}
	resp, err := n.client.Post(n.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Errorf("Failed to deliver pipeline notification to %s: %v", n.URL, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Warnf("Pipeline notification to %s returned status %d", n.URL, resp.StatusCode)
	}
}
