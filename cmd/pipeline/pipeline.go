package pipeline

import (
	"github.com/spf13/cobra"

	"deploy-keeper/cmd/root"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Deployment pipeline operations (run/list)",
	Long:  `Deployment pipeline operations (run/list)`,
}

const pipelineExample = `  # trigger a deployment run for the configured branch
  deploy-keeper pipeline run
  # list runs recorded by the keeper server
  deploy-keeper pipeline list`

func init() {
	root.RootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Example = pipelineExample
}
