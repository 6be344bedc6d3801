package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deploy-keeper/internal/models"
	"deploy-keeper/services"
)

type APIController struct {
	version   string
	startTime time.Time
	runner    *services.PipelineRunner
}

/**
 * Create new API controller instance
 * @param {string} version - Keeper build version
 * @param {*services.PipelineRunner} runner - Pipeline runner for run statistics
 * @returns {*APIController} New API controller instance
 */
func NewAPIController(version string, runner *services.PipelineRunner) *APIController {
	return &APIController{
		version:   version,
		startTime: time.Now(),
		runner:    runner,
	}
}

/**
 * Register system API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers the readiness probe and the Prometheus metrics endpoint
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// @Summary 业务就绪探针
// @Description 检查keeper是否就绪，返回版本、启动时间和关键指标统计
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(200, &models.HealthResponse{
		Version:   a.version,
		StartTime: a.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(a.startTime).Round(time.Second).String(),
		Metrics: models.KeeperMetrics{
			TotalRequests: services.GetTotalRequestCount(),
			ErrorRequests: services.GetTotalErrorCount(),
			PipelineRuns:  len(a.runner.Runs()),
		},
	})
}
