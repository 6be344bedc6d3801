package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/rpc"
	"deploy-keeper/services"
)

var stopCmd = &cobra.Command{
	Use:   "stop [service name]",
	Short: "Stop service",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, err := resolveName(args)
		if err == nil {
			err = stopService(context.Background(), name)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Stop the managed service
 * @param {context.Context} ctx - Context for request cancellation and timeout
 * @param {string} serviceName - Name of the service to stop
 * @returns {error} Returns error only when the instance survived the escalation ladder
 * @description
 * - Stopping an absent instance is a successful no-op
 * - Tries the keeper server first, falls back to local execution
 */
func stopService(ctx context.Context, serviceName string) error {
	cfg := rpc.DefaultHTTPConfig()
	// 留足升级阶梯走完的时间
	cfg.Timeout = 30 * time.Second
	rpcClient := rpc.NewHTTPClient(cfg)
	defer rpcClient.Close()

	apiPath := fmt.Sprintf("/deploy/api/v1/services/%s/stop", serviceName)
	resp, err := rpcClient.Post(apiPath, nil)
	if err != nil {
		return stopServiceLocally(ctx, serviceName)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to stop service: %s", resp.Error)
	}
	fmt.Printf("Service %s has been stopped via keeper server\n", serviceName)
	return nil
}

// stopServiceLocally 不经过服务器，直接执行终止升级阶梯
func stopServiceLocally(ctx context.Context, serviceName string) error {
	lifecycle, err := services.NewLifecycleController(config.Config.Service)
	if err != nil {
		return err
	}
	if err := lifecycle.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	fmt.Printf("Service %s has been stopped locally\n", serviceName)
	return nil
}

func init() {
	serviceCmd.AddCommand(stopCmd)
}
