package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
)

/**
 * HealthChecker 对目标URL做有界的固定间隔轮询
 * @property {http.Client} client - 带单次请求超时的HTTP客户端
 * @description
 * - 同步阻塞执行，系统里没有并发工作需要交错
 * - 固定间隔，无指数退避，总次数有界
 * - 收到第一个200立即短路返回Healthy
 */
type HealthChecker struct {
	client *http.Client
	sleep  func(time.Duration) //测试时可替换
}

func NewHealthChecker(requestTimeout time.Duration) *HealthChecker {
	return &HealthChecker{
		client: &http.Client{Timeout: requestTimeout},
		sleep:  time.Sleep,
	}
}

/**
 * Poll 轮询健康端点
 * @param {context.Context} ctx - 取消控制
 * @param {string} url - 健康端点地址
 * @param {int} maxAttempts - 最大请求次数
 * @param {time.Duration} interval - 两次请求之间的固定间隔
 * @returns {models.HealthCheckResult} 本轮轮询结果
 * @description
 * - 最多发出maxAttempts个请求，累计睡眠不超过(maxAttempts-1)*interval
 * - 单次请求超时归入该次尝试的失败原因，整体耗尽预算报Unhealthy
 */
func (hc *HealthChecker) Poll(ctx context.Context, url string, maxAttempts int, interval time.Duration) models.HealthCheckResult {
	result := models.HealthCheckResult{URL: url}

	var lastReason string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		start := time.Now()
		ok, reason := hc.check(ctx, url)
		result.Latency = time.Since(start)

		if ok {
			result.Outcome = models.Healthy
			RecordHealthPoll(string(models.Healthy))
			logger.Infof("Health check %s succeeded (attempt %d/%d)", url, attempt, maxAttempts)
			return result
		}
		lastReason = reason
		logger.Warnf("Health check %s failed (attempt %d/%d): %s", url, attempt, maxAttempts, reason)

		if ctx.Err() != nil {
			result.Outcome = models.Unhealthy
			result.Reason = fmt.Sprintf("canceled: %v", ctx.Err())
			RecordHealthPoll(string(models.Unhealthy))
			return result
		}
		// 最后一次尝试后不再等待
		if attempt < maxAttempts {
			hc.sleep(interval)
		}
	}

	result.Outcome = models.Unhealthy
	result.Reason = fmt.Sprintf("attempts exhausted: %s", lastReason)
	RecordHealthPoll(string(models.Unhealthy))
	return result
}

// check 发出单次GET请求，仅200视为健康
func (hc *HealthChecker) check(ctx context.Context, url string) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Sprintf("bad request: %v", err)
	}
	resp, err := hc.client.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, ""
	}
	return false, fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
