package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/secgate-io/secgate/internal/report"
)

// RunOptionsReport holds the flags of the report command.
type RunOptionsReport struct {
	ReportID string
	Format   string
	Output   string
}

var (
	allArgumentsReport RunOptionsReport
	execExampleReport  = `  # Export the most recent report as markdown to stdout
  secgate report export --format markdown

  # Export a specific report as SARIF into the results folder
  secgate report export --report-id ID --format sarif --output ~/.secgate/results

  # Show aggregate statistics over the full report history
  secgate report stats`
)

var reportCmd = &cobra.Command{
	Use:                   "report [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               execExampleReport,
	Short:                 "Export reports and inspect historical statistics",
}

var reportExportCmd = &cobra.Command{
	Use:                   "export [--report-id ID] --format FORMAT [--output PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Export one report from the history",

	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(allArgumentsReport.Format)
		if err != nil {
			return err
		}

		rt, err := newRuntime("core-report")
		if err != nil {
			return err
		}

		history, err := rt.history.All()
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return fmt.Errorf("report history is empty")
		}

		selected := history[len(history)-1]
		if len(allArgumentsReport.ReportID) != 0 {
			found := false
			for _, rep := range history {
				if rep.ReportID == allArgumentsReport.ReportID {
					selected = rep
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no report with id %q in history", allArgumentsReport.ReportID)
			}
		}

		if len(allArgumentsReport.Output) != 0 {
			path, err := report.WriteExport(selected, format, allArgumentsReport.Output)
			if err != nil {
				return err
			}
			fmt.Printf("Report exported to %s\n", path)
			return nil
		}

		data, err := report.Export(selected, format)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var reportStatsCmd = &cobra.Command{
	Use:                   "stats",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Show aggregate statistics over the report history",

	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime("core-report")
		if err != nil {
			return err
		}

		stats, err := report.ComputeStatistics(rt.history)
		if err != nil {
			return err
		}

		fmt.Printf("Reports: %d\n", stats.TotalReports)
		if stats.TotalReports == 0 {
			return nil
		}

		fmt.Printf("Pass rate: %.1f%%\n", stats.PassRate*100)
		fmt.Printf("Average security score: %.1f\n", stats.AverageScore)

		if len(stats.MostCommonIssues) > 0 {
			fmt.Println("Most common issues:")
			for _, issue := range stats.MostCommonIssues {
				fmt.Printf("  %s: %d\n", issue.Category, issue.Count)
			}
		}
		if len(stats.GatePerformance) > 0 {
			fmt.Println("Gate performance:")
			for _, perf := range stats.GatePerformance {
				fmt.Printf("  %s: %d runs, %.1f%% success, mean duration %s\n",
					perf.GateID, perf.Runs, perf.SuccessRate*100, perf.MeanDuration)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportExportCmd)
	reportCmd.AddCommand(reportStatsCmd)

	reportExportCmd.Flags().StringVar(&allArgumentsReport.ReportID, "report-id", "", "report to export (defaults to the most recent)")
	reportExportCmd.Flags().StringVar(&allArgumentsReport.Format, "format", "json", "export format (json, yaml, markdown, sarif)")
	reportExportCmd.Flags().StringVar(&allArgumentsReport.Output, "output", "", "write the export under this path instead of stdout")
}
