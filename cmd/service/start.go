package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/models"
	"deploy-keeper/internal/rpc"
	"deploy-keeper/services"
)

var startReplace bool

var startCmd = &cobra.Command{
	Use:   "start [service name]",
	Short: "Start service",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, err := resolveName(args)
		if err == nil {
			err = startService(context.Background(), name)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Start the managed service
 * @param {context.Context} ctx - Context for request cancellation and timeout
 * @param {string} serviceName - Name of the service to start
 * @returns {error} Returns error if service start fails, nil on success
 * @description
 * - Tries the keeper server over its socket first
 * - Falls back to local lifecycle controller when no server is reachable
 */
func startService(ctx context.Context, serviceName string) error {
	// 优先尝试通过keeper服务器启动，服务器持有实例状态
	cfg := rpc.DefaultHTTPConfig()
	cfg.Timeout = 10 * time.Second
	rpcClient := rpc.NewHTTPClient(cfg)
	defer rpcClient.Close()

	apiPath := fmt.Sprintf("/deploy/api/v1/services/%s/start", serviceName)
	if startReplace {
		apiPath += "?replace=true"
	}
	resp, err := rpcClient.Post(apiPath, nil)
	if err != nil {
		// 连接服务器失败，退回本地执行
		return startServiceLocally(ctx, serviceName)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to start service: %s", resp.Error)
	}
	fmt.Printf("Service %s has been started via keeper server\n", serviceName)
	return nil
}

// startServiceLocally 不经过服务器，直接用生命周期控制器启动
func startServiceLocally(ctx context.Context, serviceName string) error {
	lifecycle, err := services.NewLifecycleController(config.Config.Service)
	if err != nil {
		return err
	}
	state, err := lifecycle.Start(ctx, startReplace)
	if err != nil {
		if errors.Is(err, models.ErrStartUnconfirmed) {
			fmt.Printf("Service %s started but health not confirmed (instance: %s)\n", serviceName, state.ID)
			return err
		}
		return fmt.Errorf("failed to start service: %w", err)
	}
	fmt.Printf("Service %s has been started locally (instance: %s)\n", serviceName, state.ID)
	return nil
}

func init() {
	serviceCmd.AddCommand(startCmd)

	startCmd.Flags().BoolVar(&startReplace, "replace", false, "Stop the old instance first if the binding is occupied")
}
