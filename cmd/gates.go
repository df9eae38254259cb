package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var execExampleGates = `  # List the configured gates and their state
  secgate gates list

  # Disable one gate without removing it from the configuration
  secgate gates disable pre-commit-security

  # Re-enable it later
  secgate gates enable pre-commit-security`

var gatesCmd = &cobra.Command{
	Use:                   "gates [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               execExampleGates,
	Short:                 "Inspect and toggle the configured security gates",
}

var gatesListCmd = &cobra.Command{
	Use:                   "list",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List the configured gates",

	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime("core-gates")
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTAGE\tENABLED\tBLOCKING\tCHECKS")
		for _, g := range rt.store.Gates() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%d\n",
				g.ID, g.Name, g.Stage, g.Enabled, g.Blocking, len(g.Checks))
		}
		return w.Flush()
	},
}

var gatesEnableCmd = &cobra.Command{
	Use:                   "enable GATE_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Enable one gate",
	Args:                  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleGate(args[0], true)
	},
}

var gatesDisableCmd = &cobra.Command{
	Use:                   "disable GATE_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Disable one gate",
	Args:                  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleGate(args[0], false)
	},
}

func toggleGate(id string, enabled bool) error {
	rt, err := newRuntime("core-gates")
	if err != nil {
		return err
	}
	if err := rt.store.SetEnabled(id, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Gate %s %s\n", id, state)
	return nil
}

func init() {
	rootCmd.AddCommand(gatesCmd)
	gatesCmd.AddCommand(gatesListCmd)
	gatesCmd.AddCommand(gatesEnableCmd)
	gatesCmd.AddCommand(gatesDisableCmd)
}
