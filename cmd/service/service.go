package service

import (
	"fmt"

	"github.com/spf13/cobra"

	"deploy-keeper/cmd/root"
	"deploy-keeper/internal/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Service operations (start/stop/restart/status)",
	Long:  `Service operations (start/stop/restart/status)`,
}

const serviceExample = `  # start the managed service
  deploy-keeper service start
  # check current instance status
  deploy-keeper service status`

// resolveName 只管理配置中声明的那个服务，名字参数可省略
func resolveName(args []string) (string, error) {
	name := config.Config.Service.Name
	if len(args) > 0 && args[0] != name {
		return "", fmt.Errorf("service [%s] isn't exist", args[0])
	}
	return name, nil
}

func init() {
	root.RootCmd.AddCommand(serviceCmd)

	serviceCmd.Example = serviceExample
}
