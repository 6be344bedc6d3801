package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/rpc"
	"deploy-keeper/services"
)

var statusCmd = &cobra.Command{
	Use:   "status [service name]",
	Short: "Show service status",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, err := resolveName(args)
		if err == nil {
			err = showStatus(context.Background(), name)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Show current status of the managed service
 * @description
 * - Probes the binding and runs a single health request
 * - Prints the instance detail as indented JSON
 */
func showStatus(ctx context.Context, serviceName string) error {
	rpcClient := rpc.NewHTTPClient(nil)
	defer rpcClient.Close()

	apiPath := fmt.Sprintf("/deploy/api/v1/services/%s", serviceName)
	resp, err := rpcClient.Get(apiPath, nil)
	if err == nil && resp.OK() {
		var buf json.RawMessage = resp.Body
		pretty, err := json.MarshalIndent(buf, "", "  ")
		if err != nil {
			fmt.Println(string(resp.Body))
			return nil
		}
		fmt.Println(string(pretty))
		return nil
	}

	lifecycle, err := services.NewLifecycleController(config.Config.Service)
	if err != nil {
		return err
	}
	detail, err := lifecycle.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get service status: %w", err)
	}
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	serviceCmd.AddCommand(statusCmd)
}
