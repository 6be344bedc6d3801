package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"deploy-keeper/internal/models"
	"deploy-keeper/services"
)

type ServiceController struct {
	lifecycle *services.LifecycleController
}

/**
 * Create new Service controller instance
 * @param {*services.LifecycleController} lifecycle - Lifecycle controller of the managed service
 * @returns {*ServiceController} New Service controller instance
 */
func NewServiceController(lifecycle *services.LifecycleController) *ServiceController {
	return &ServiceController{
		lifecycle: lifecycle,
	}
}

/**
 * Register all service API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for service lifecycle (start/stop/restart/status)
 */
func (s *ServiceController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/deploy/api/v1")
	// 服务生命周期接口
	api.POST("/services/:name/start", s.StartService)
	api.POST("/services/:name/stop", s.StopService)
	api.POST("/services/:name/restart", s.RestartService)
	api.GET("/services/:name", s.GetService)
}

// checkName 只管理配置中声明的那个服务
func (s *ServiceController) checkName(c *gin.Context) bool {
	name := c.Param("name")
	if name != s.lifecycle.Config().Name {
		c.JSON(404, &models.ErrorResponse{
			Code:  "service.notexist",
			Error: fmt.Sprintf("service [%s] isn't exist", name),
		})
		return false
	}
	return true
}

// StartService starts the managed service
//
//	@Summary		Start service
//	@Description	Launch a new instance on the configured binding and wait for health confirmation
//	@Tags			Services
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Service name"
//	@Param			replace	query		bool					false	"Stop the old instance first if the binding is occupied"
//	@Success		200		{object}	models.InstanceState	"Instance state after start"
//	@Failure		404		{object}	models.ErrorResponse	"Service not found error response"
//	@Failure		409		{object}	models.ErrorResponse	"Binding already occupied"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/deploy/api/v1/services/{name}/start [post]
func (s *ServiceController) StartService(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	replace := c.Query("replace") == "true"

	state, err := s.lifecycle.Start(c.Request.Context(), replace)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, &models.ErrorResponse{
				Code:  "service.already_running",
				Error: err.Error(),
			})
		case errors.Is(err, models.ErrStartUnconfirmed):
			// 实例已拉起但健康未确认：返回状态和错误，由调用方决定回滚
			c.JSON(http.StatusAccepted, gin.H{
				"instance": state,
				"warning":  err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
				Error: err.Error(),
			})
		}
		return
	}
	c.JSON(200, state)
}

// StopService stops the managed service
//
//	@Summary		Stop service
//	@Description	Stop the instance occupying the configured binding, graceful first then forced
//	@Tags			Services
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Service name"
//	@Success		200		{object}	models.StatusResponse	"Service stop success response"
//	@Failure		404		{object}	models.ErrorResponse	"Service not found error response"
//	@Failure		500		{object}	models.ErrorResponse	"Stop failed, operator intervention required"
//	@Router			/deploy/api/v1/services/{name}/stop [post]
func (s *ServiceController) StopService(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	if err := s.lifecycle.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Code:  "service.stop_failed",
			Error: err.Error(),
		})
		return
	}
	c.JSON(200, &models.StatusResponse{Status: "success"})
}

// RestartService restarts the managed service
//
//	@Summary		Restart service
//	@Description	Stop the current instance then start a new one; aborts if stop fails
//	@Tags			Services
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Service name"
//	@Success		200		{object}	models.InstanceState	"Instance state after restart"
//	@Failure		404		{object}	models.ErrorResponse	"Service not found error response"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/deploy/api/v1/services/{name}/restart [post]
func (s *ServiceController) RestartService(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	state, err := s.lifecycle.Restart(c.Request.Context())
	if err != nil {
		if errors.Is(err, models.ErrStartUnconfirmed) {
			c.JSON(http.StatusAccepted, gin.H{
				"instance": state,
				"warning":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(200, state)
}

// GetService gets current status of the managed service
//
//	@Summary		Get service status
//	@Description	Probe the binding and run a quick health check against the instance
//	@Tags			Services
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Service name"
//	@Success		200		{object}	models.InstanceDetail	"Service detail information"
//	@Failure		404		{object}	models.ErrorResponse	"Service not found error response"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/deploy/api/v1/services/{name} [get]
func (s *ServiceController) GetService(c *gin.Context) {
	if !s.checkName(c) {
		return
	}
	detail, err := s.lifecycle.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(200, detail)
}
