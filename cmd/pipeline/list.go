package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deploy-keeper/internal/rpc"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listRuns(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// listRuns 运行记录只存在于服务器内存中，没有服务器时直接报错
func listRuns() error {
	rpcClient := rpc.NewHTTPClient(nil)
	defer rpcClient.Close()

	resp, err := rpcClient.Get("/deploy/api/v1/pipelines", nil)
	if err != nil {
		return fmt.Errorf("keeper server is not reachable: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to list pipeline runs: %s", resp.Error)
	}

	var pretty json.RawMessage = resp.Body
	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(resp.Body))
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	pipelineCmd.AddCommand(listCmd)
}
