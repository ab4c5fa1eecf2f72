package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/loader"
	"github.com/tracewire/tracewire/pkg/manager"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a topology file",
	Long: `Apply a declarative topology from a YAML file.

Examples:
  # Apply a topology
  tracewire apply -f topology.yaml

  # Re-apply after edits; existing objects are kept, only the delta is created
  tracewire apply -f topology.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	return withManager(func(mgr *manager.Manager) error {
		l := loader.New(mgr)

		topo, err := l.LoadFile(filename)
		if err != nil {
			return err
		}

		result, err := l.Apply(topo)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Topology applied: %d devices, %d circuits, %d terminations, %d cables (%d already present)\n",
			result.DevicesCreated, result.CircuitsCreated,
			result.TerminationsCreated, result.CablesCreated, result.CablesSkipped)
		return nil
	})
}
