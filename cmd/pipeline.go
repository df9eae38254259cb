package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var execExamplePipeline = `  # Walk pre-commit, pre-build and pre-deploy, stopping at the first failure
  secgate pipeline

  # Run the full pipeline against an explicit target
  secgate pipeline /path/to/project`

var pipelineCmd = &cobra.Command{
	Use:                   "pipeline [--dry-run] [--continue-on-failure] [--skip-non-blocking] [--export FORMAT] [target]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               execExamplePipeline,
	Short:                 "Run the full delivery pipeline, stage by stage",
	Args:                  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(args)
		if err != nil {
			return err
		}

		rt, err := newRuntime("core-pipeline")
		if err != nil {
			return err
		}

		return finishRun(rt.orchestrator.RunFull(context.Background(), opts))
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Flags().BoolVar(&allArgumentsRun.DryRun, "dry-run", false, "validate the configuration without executing checks")
	pipelineCmd.Flags().BoolVar(&allArgumentsRun.ContinueOnFailure, "continue-on-failure", false, "keep executing gates after a blocking gate failed")
	pipelineCmd.Flags().BoolVar(&allArgumentsRun.SkipNonBlocking, "skip-non-blocking", false, "run blocking gates only")
	pipelineCmd.Flags().StringVar(&allArgumentsRun.Export, "export", "", "export each report in the given format (json, yaml, markdown, sarif)")
}
