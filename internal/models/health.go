package models

import "time"

// HealthOutcome 健康检查结果分类
type HealthOutcome string

const (
	Healthy   HealthOutcome = "healthy"
	Unhealthy HealthOutcome = "unhealthy"
	// Timeout 单次请求超过请求级超时；轮询整体耗尽预算时归入Unhealthy
	Timeout HealthOutcome = "timeout"
)

// HealthCheckResult 一次健康轮询的结果，按次产生，不持久化
// @Description 健康检查结果
type HealthCheckResult struct {
	URL      string        `json:"url" example:"http://localhost:8001/health" description:"探测地址"`
	Attempts int           `json:"attempts" example:"3" description:"实际发出的请求次数"`
	Outcome  HealthOutcome `json:"outcome" example:"healthy" description:"检查结果"`
	Latency  time.Duration `json:"latency" description:"最后一次请求耗时"`
	Reason   string        `json:"reason,omitempty" example:"attempts exhausted" description:"失败原因"`
}

// HealthResponse keeper自身就绪探针的响应结构
// @Description keeper健康检查API响应
type HealthResponse struct {
	Version   string        `json:"version" example:"1.0.0" description:"keeper版本"`
	StartTime string        `json:"startTime" example:"2024-01-01T10:00:00Z" description:"启动时间"`
	Status    string        `json:"status" example:"UP" description:"健康状态"`
	Uptime    string        `json:"uptime" example:"1h30m45s" description:"运行时长"`
	Metrics   KeeperMetrics `json:"metrics" description:"关键指标"`
}

// KeeperMetrics keeper关键指标
// @Description keeper关键指标数据结构
type KeeperMetrics struct {
	TotalRequests int64 `json:"totalRequests" example:"1000" description:"总请求数"`
	ErrorRequests int64 `json:"errorRequests" example:"5" description:"出错请求数"`
	PipelineRuns  int   `json:"pipelineRuns" example:"12" description:"流水线运行次数"`
}
