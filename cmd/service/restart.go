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

var restartCmd = &cobra.Command{
	Use:   "restart [service name]",
	Short: "Restart service",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, err := resolveName(args)
		if err == nil {
			err = restartService(context.Background(), name)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Restart the managed service
 * @param {context.Context} ctx - Context for request cancellation and timeout
 * @param {string} serviceName - Name of the service to restart
 * @returns {error} Returns error if stop or start fails
 * @description
 * - Composed as stop-then-start; aborts without launching when stop fails
 */
func restartService(ctx context.Context, serviceName string) error {
	cfg := rpc.DefaultHTTPConfig()
	cfg.Timeout = 60 * time.Second
	rpcClient := rpc.NewHTTPClient(cfg)
	defer rpcClient.Close()

	apiPath := fmt.Sprintf("/deploy/api/v1/services/%s/restart", serviceName)
	resp, err := rpcClient.Post(apiPath, nil)
	if err != nil {
		return restartServiceLocally(ctx, serviceName)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to restart service: %s", resp.Error)
	}
	fmt.Printf("Service %s has been restarted via keeper server\n", serviceName)
	return nil
}

func restartServiceLocally(ctx context.Context, serviceName string) error {
	lifecycle, err := services.NewLifecycleController(config.Config.Service)
	if err != nil {
		return err
	}
	state, err := lifecycle.Restart(ctx)
	if err != nil {
		if errors.Is(err, models.ErrStartUnconfirmed) {
			fmt.Printf("Service %s restarted but health not confirmed (instance: %s)\n", serviceName, state.ID)
			return err
		}
		return fmt.Errorf("failed to restart service: %w", err)
	}
	fmt.Printf("Service %s has been restarted locally (instance: %s)\n", serviceName, state.ID)
	return nil
}

func init() {
	serviceCmd.AddCommand(restartCmd)
}
