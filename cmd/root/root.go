package root

import (
	"github.com/spf13/cobra"
)

// 构建时通过-ldflags注入
var SoftwareVer = ""
var BuildTime = ""
var BuildCommitId = ""

var RootCmd = &cobra.Command{
	Use:   "deploy-keeper",
	Short: "部署编排与进程生命周期管理器",
	Long:  `deploy-keeper管理后端服务的部署流水线、实例启停、健康检查与状态监控`,
}
