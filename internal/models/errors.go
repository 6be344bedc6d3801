package models

import "errors"

// 生命周期操作的错误分类，调用方据此决定是否需要人工介入
var (
	// ErrAlreadyRunning 启动时发现binding已被占用，可通过先stop再start恢复
	ErrAlreadyRunning = errors.New("binding is already occupied by a running instance")

	// ErrStartUnconfirmed 进程已拉起但健康检查在预算内未确认，非致命，由调用方决定是否回滚
	ErrStartUnconfirmed = errors.New("instance launched but health was not confirmed within budget")

	// ErrStopFailed 优雅和强制终止都未能释放binding，致命，需要人工介入
	ErrStopFailed = errors.New("instance still occupies binding after forced termination")
)
