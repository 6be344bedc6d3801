package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deploy-keeper/internal/config"
	"deploy-keeper/internal/models"
	"deploy-keeper/internal/rpc"
	"deploy-keeper/services"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a deployment pipeline run",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPipeline(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

/**
 * Trigger a deployment pipeline run
 * @param {context.Context} ctx - Context for stage command cancellation
 * @returns {error} Returns error when the run ends in failure
 * @description
 * - Hands the run to the keeper server when one is reachable, so it
 *   serializes with webhook-triggered runs
 * - Otherwise executes the full pipeline locally and prints each stage
 */
func runPipeline(ctx context.Context) error {
	rpcClient := rpc.NewHTTPClient(nil)
	resp, err := rpcClient.Post("/deploy/api/v1/pipelines", nil)
	if err == nil && resp.OK() {
		rpcClient.Close()
		fmt.Println("Pipeline run accepted by keeper server")
		return nil
	}
	rpcClient.Close()

	return runPipelineLocally(ctx)
}

// runPipelineLocally 没有服务器时在前台完整执行一次流水线
func runPipelineLocally(ctx context.Context) error {
	cfg := &config.Config
	lifecycle, err := services.NewLifecycleController(cfg.Service)
	if err != nil {
		return err
	}
	spec, err := config.LoadPipeline(cfg.Deploy.PipelineFile)
	if err != nil {
		return fmt.Errorf("failed to load pipeline definition: %w", err)
	}
	runner, err := services.NewPipelineRunner(cfg, spec, lifecycle)
	if err != nil {
		return err
	}

	run := runner.Run(ctx, "manual", cfg.Deploy.Branch)
	printRun(run)
	if run.Outcome != models.RunSuccess {
		return fmt.Errorf("pipeline run %s failed", run.ID)
	}
	return nil
}

func printRun(run *models.PipelineRun) {
	fmt.Printf("Run %s (%s): %s\n", run.ID, run.Branch, run.Outcome)
	for _, st := range run.Stages {
		line := fmt.Sprintf("  %-28s %s", st.Name, st.Outcome)
		if st.Error != "" {
			line += "  " + st.Error
		}
		fmt.Println(line)
	}
	if run.Endpoint != "" {
		fmt.Printf("Service available at %s\n", run.Endpoint)
	}
}

func init() {
	pipelineCmd.AddCommand(runCmd)
}
