package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/models"
	"deploy-keeper/services"
)

type PipelineController struct {
	runner *services.PipelineRunner
}

func NewPipelineController(runner *services.PipelineRunner) *PipelineController {
	return &PipelineController{
		runner: runner,
	}
}

/**
 * Register pipeline API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for pipeline run management and the push webhook
 */
func (p *PipelineController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/deploy/api/v1")
	// 流水线接口
	api.GET("/pipelines", p.ListRuns)
	api.GET("/pipelines/:id", p.GetRun)
	api.POST("/pipelines", p.TriggerRun)
	api.POST("/webhook", p.HandleWebhook)
}

// ListRuns lists pipeline runs in trigger order
//
//	@Summary		List pipeline runs
//	@Description	Get all pipeline runs recorded by this server instance
//	@Tags			Pipelines
//	@Produce		json
//	@Success		200	{array}	models.PipelineRun	"List of pipeline runs"
//	@Router			/deploy/api/v1/pipelines [get]
func (p *PipelineController) ListRuns(c *gin.Context) {
	c.JSON(200, p.runner.Runs())
}

// GetRun gets one pipeline run by id
//
//	@Summary		Get pipeline run
//	@Description	Get a single pipeline run with per-stage outcomes and log references
//	@Tags			Pipelines
//	@Produce		json
//	@Param			id	path		string				true	"Run ID"
//	@Success		200	{object}	models.PipelineRun	"Pipeline run record"
//	@Failure		404	{object}	models.ErrorResponse	"Run not found error response"
//	@Router			/deploy/api/v1/pipelines/{id} [get]
func (p *PipelineController) GetRun(c *gin.Context) {
	id := c.Param("id")
	run := p.runner.GetRun(id)
	if run == nil {
		c.JSON(404, &models.ErrorResponse{
			Code:  "pipeline.notexist",
			Error: fmt.Sprintf("pipeline run [%s] isn't exist", id),
		})
		return
	}
	c.JSON(200, run)
}

// TriggerRun triggers a manual pipeline run
//
//	@Summary		Trigger pipeline run
//	@Description	Start a deployment pipeline run for the configured branch
//	@Tags			Pipelines
//	@Accept			json
//	@Produce		json
//	@Success		202	{object}	map[string]interface{}	"Run accepted"
//	@Router			/deploy/api/v1/pipelines [post]
func (p *PipelineController) TriggerRun(c *gin.Context) {
	branch := p.runner.TriggerBranch()
	// 运行在后台执行，接口立即返回；运行串行化由runner保证
	go p.runner.Run(context.Background(), "manual", branch)
	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"branch": branch,
	})
}

// HandleWebhook handles source-control push events
//
//	@Summary		Push webhook
//	@Description	Trigger a pipeline run when the push targets the configured deploy branch; other branches are ignored
//	@Tags			Pipelines
//	@Accept			json
//	@Produce		json
//	@Success		202	{object}	map[string]interface{}	"Run accepted"
//	@Success		200	{object}	models.StatusResponse	"Push ignored"
//	@Failure		400	{object}	models.ErrorResponse	"Malformed event payload"
//	@Router			/deploy/api/v1/webhook [post]
func (p *PipelineController) HandleWebhook(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Code:  "webhook.bad_payload",
			Error: err.Error(),
		})
		return
	}

	branch := event.BranchName()
	if branch != p.runner.TriggerBranch() {
		logger.Infof("Ignoring push to branch %q (deploy branch is %q)", branch, p.runner.TriggerBranch())
		c.JSON(200, &models.StatusResponse{Status: "ignored"})
		return
	}

	logger.Infof("Push to %s received, triggering pipeline", branch)
	go p.runner.Run(context.Background(), "webhook", branch)
	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"branch": branch,
	})
}
