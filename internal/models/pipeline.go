package models

import (
	"time"
)

// StageOutcome 流水线阶段结果
type StageOutcome string

const (
	StageSuccess StageOutcome = "success"
	StageFailure StageOutcome = "failure"
	StageSkipped StageOutcome = "skipped"
)

// RunOutcome 流水线整体结果
type RunOutcome string

const (
	RunPending RunOutcome = "pending"
	RunSuccess RunOutcome = "success"
	RunFailure RunOutcome = "failure"
)

// StageRecord 一个阶段的执行记录
// @Description 流水线阶段执行记录
type StageRecord struct {
	Name     string        `json:"name" example:"build-artifact" description:"阶段名称"`
	Blocking bool          `json:"blocking" example:"true" description:"是否为阻断阶段"`
	Outcome  StageOutcome  `json:"outcome" example:"success" description:"阶段结果"`
	LogRef   string        `json:"logRef,omitempty" description:"阶段日志文件路径"`
	Error    string        `json:"error,omitempty" description:"失败原因"`
	Duration time.Duration `json:"duration" description:"阶段耗时"`
}

// PipelineRun 一次流水线运行，完成后结果不可变
// @Description 流水线运行记录
type PipelineRun struct {
	ID        string        `json:"id" example:"c1f9e0a2-..." description:"运行ID"`
	Branch    string        `json:"branch" example:"master" description:"触发分支"`
	Trigger   string        `json:"trigger" example:"webhook" description:"触发方式：manual/webhook"`
	Outcome   RunOutcome    `json:"outcome" example:"success" description:"整体结果"`
	Stages    []StageRecord `json:"stages" description:"阶段记录，按执行顺序排列"`
	Endpoint  string        `json:"endpoint,omitempty" example:"http://localhost:8001" description:"部署成功后可达的服务地址"`
	StartTime time.Time     `json:"startTime" description:"开始时间"`
	EndTime   time.Time     `json:"endTime" description:"结束时间"`
}

// WebhookEvent 源码托管平台推送事件，只取触发判定需要的字段
// @Description 推送事件
type WebhookEvent struct {
	Ref        string `json:"ref" example:"refs/heads/master" description:"推送的引用"`
	After      string `json:"after,omitempty" example:"9f3c2d1" description:"推送后的commit"`
	Repository struct {
		Name string `json:"name" example:"stock-predict" description:"仓库名称"`
	} `json:"repository"`
}

// Branch 返回推送事件对应的分支名，非分支推送返回空串
func (e *WebhookEvent) BranchName() string {
	const prefix = "refs/heads/"
	if len(e.Ref) > len(prefix) && e.Ref[:len(prefix)] == prefix {
		return e.Ref[len(prefix):]
	}
	return ""
}
