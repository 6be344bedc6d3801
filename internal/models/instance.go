package models

import (
	"fmt"
	"time"
)

// RunStatus 服务实例的运行状态
type RunStatus string

const (
	StatusAbsent   RunStatus = "absent"
	StatusStarting RunStatus = "starting"
	StatusRunning  RunStatus = "running"
	StatusStopping RunStatus = "stopping"
	StatusStopped  RunStatus = "stopped"
)

// BindingKind 绑定类型：端口或容器名
type BindingKind string

const (
	BindingPort      BindingKind = "port"
	BindingContainer BindingKind = "container"
)

/**
 * Binding 服务实例占用的身份标识
 * @property {int} port - TCP端口号（裸进程部署）
 * @property {string} container - 容器名称（容器化部署）
 * @description
 * - 同一时刻一个binding最多只能被一个存活实例占用
 * - Port和Container二选一，Port优先
 */
type Binding struct {
	Port      int    `json:"port,omitempty" mapstructure:"port"`
	Container string `json:"container,omitempty" mapstructure:"container"`
}

func (b Binding) Kind() BindingKind {
	if b.Port > 0 {
		return BindingPort
	}
	return BindingContainer
}

func (b Binding) String() string {
	if b.Port > 0 {
		return fmt.Sprintf("port:%d", b.Port)
	}
	return fmt.Sprintf("container:%s", b.Container)
}

// InstanceState 实例状态快照
// @Description 服务实例状态信息
type InstanceState struct {
	Name      string    `json:"name" example:"predict-backend" description:"服务名称"`
	ID        string    `json:"id" example:"1234" description:"实例标识（进程PID或容器ID）"`
	Binding   Binding   `json:"binding" description:"实例占用的绑定"`
	Status    RunStatus `json:"status" example:"running" description:"实例状态"`
	StartTime string    `json:"startTime" example:"2024-01-01T10:00:00Z" description:"启动时间"`
}

// InstanceDetail 实例详细信息（API返回用）
// @Description 服务实例详细信息
type InstanceDetail struct {
	InstanceState
	HealthURL   string    `json:"healthUrl" example:"http://localhost:8001/health" description:"健康检查地址"`
	LastChecked time.Time `json:"lastChecked" description:"最近一次健康检查时间"`
	Healthy     bool      `json:"healthy" example:"true" description:"是否健康"`
}
