package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/secgate-io/secgate/internal/pipeline"
	"github.com/secgate-io/secgate/internal/report"
	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

// RunOptionsRun holds the flags of the run command.
type RunOptionsRun struct {
	Stage             string
	DryRun            bool
	ContinueOnFailure bool
	SkipNonBlocking   bool
	Export            string
}

var (
	allArgumentsRun RunOptionsRun
	execExampleRun  = `  # Run all gates of one stage against the configured project
  secgate run --stage pre-commit

  # Run a stage against an explicit target
  secgate run --stage pre-build /path/to/project

  # Validate the configuration without executing any check
  secgate run --stage pre-build --dry-run

  # Run a stage and export the report as SARIF into the results folder
  secgate run --stage pre-build --export sarif`
)

var runCmd = &cobra.Command{
	Use:                   "run --stage STAGE [--dry-run] [--continue-on-failure] [--skip-non-blocking] [--export FORMAT] [target]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               execExampleRun,
	Short:                 "Run the security gates of one pipeline stage",
	Args:                  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		if len(allArgumentsRun.Stage) == 0 {
			return fmt.Errorf("'stage' flag must be specified")
		}
		stage, err := types.ParseStage(allArgumentsRun.Stage)
		if err != nil {
			return err
		}

		opts, err := runOptions(args)
		if err != nil {
			return err
		}

		rt, err := newRuntime("core-run")
		if err != nil {
			return err
		}

		rep := rt.orchestrator.RunStage(context.Background(), stage, opts)
		return finishRun([]types.Report{rep})
	},
}

// runOptions translates the run flags into pipeline options.
func runOptions(args []string) (pipeline.Options, error) {
	opts := pipeline.Options{
		DryRun:            allArgumentsRun.DryRun,
		ContinueOnFailure: allArgumentsRun.ContinueOnFailure,
		SkipNonBlocking:   allArgumentsRun.SkipNonBlocking,
	}
	if len(args) > 0 {
		opts.Target = args[0]
	}

	if len(allArgumentsRun.Export) != 0 {
		if _, err := report.ParseFormat(allArgumentsRun.Export); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// finishRun prints the outcomes, exports reports when requested and maps a
// failed run to a non-zero exit code.
func finishRun(reports []types.Report) error {
	failed := false
	for _, rep := range reports {
		printRunOutcome(rep)
		if rep.Status == types.GateStatusFailed {
			failed = true
		}

		if len(allArgumentsRun.Export) != 0 {
			format, err := report.ParseFormat(allArgumentsRun.Export)
			if err != nil {
				return err
			}
			path, err := report.WriteExport(rep, format, config.GetResultsHome(AppConfig))
			if err != nil {
				return err
			}
			fmt.Printf("Report exported to %s\n", path)
		}
	}

	if failed {
		return errors.NewCommandError(fmt.Errorf("one or more security gates failed"), 1)
	}
	return nil
}

func printRunOutcome(rep types.Report) {
	fmt.Printf("Stage %s: %s (score %.1f, %d issues, %d critical)\n",
		rep.Stage, rep.Status, rep.Summary.SecurityScore,
		rep.Summary.TotalIssues, rep.Summary.CriticalIssues)
	for _, gateResult := range rep.Gates {
		fmt.Printf("  gate %s: %s - %s\n", gateResult.GateID, gateResult.Status, gateResult.Message)
	}
	for _, rec := range rep.Recommendations {
		fmt.Printf("  recommendation: %s\n", rec)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&allArgumentsRun.Stage, "stage", "", "pipeline stage to run (pre-commit, pre-build, pre-deploy, post-deploy)")
	runCmd.Flags().BoolVar(&allArgumentsRun.DryRun, "dry-run", false, "validate the configuration without executing checks")
	runCmd.Flags().BoolVar(&allArgumentsRun.ContinueOnFailure, "continue-on-failure", false, "keep executing gates after a blocking gate failed")
	runCmd.Flags().BoolVar(&allArgumentsRun.SkipNonBlocking, "skip-non-blocking", false, "run blocking gates only")
	runCmd.Flags().StringVar(&allArgumentsRun.Export, "export", "", "export each report in the given format (json, yaml, markdown, sarif)")
}
