package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/log"
	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tracewire",
	Short: "Tracewire - cable connectivity graph and path tracing",
	Long: `Tracewire models physical connectivity as a graph of devices,
terminations and cables, and materializes end-to-end paths through
patch panels and provider circuits.

State lives in a single embedded database; no external services needed.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Tracewire version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./tracewire-data",
		"Data directory for connectivity state")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit logs as JSON")

	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(cableCmd)
	rootCmd.AddCommand(sweepCmd)
}

// withManager opens the manager for the configured data directory, runs fn
// and closes it again.
func withManager(fn func(*manager.Manager) error) error {
	mgr, err := manager.NewManager(&manager.Config{DataDir: dataDir})
	if err != nil {
		return fmt.Errorf("failed to open manager: %v", err)
	}
	defer mgr.Close()
	return fn(mgr)
}

// resolveEndpoint maps "device:termination" or "circuit:CID:side" to a
// stored termination.
func resolveEndpoint(mgr *manager.Manager, endpoint string) (*types.Termination, error) {
	parts := strings.Split(endpoint, ":")

	if len(parts) == 3 && parts[0] == "circuit" {
		circuits, err := mgr.ListCircuits()
		if err != nil {
			return nil, err
		}
		for _, circuit := range circuits {
			if circuit.CID == parts[1] {
				return mgr.Store().GetCircuitTermination(
					circuit.ID, types.CircuitSide(parts[2]))
			}
		}
		return nil, fmt.Errorf("circuit %s not found", parts[1])
	}

	if len(parts) == 2 {
		device, err := mgr.GetDeviceByName(parts[0])
		if err != nil {
			return nil, fmt.Errorf("device %s not found", parts[0])
		}
		return mgr.GetTerminationByName(device.ID, parts[1])
	}

	return nil, fmt.Errorf("endpoint %q is not device:termination or circuit:cid:side", endpoint)
}

// Device commands
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage devices",
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices and their terminations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			devices, err := mgr.ListDevices()
			if err != nil {
				return err
			}
			for _, device := range devices {
				fmt.Printf("%s", device.Name)
				if device.Site != "" {
					fmt.Printf(" (%s)", device.Site)
				}
				fmt.Println()

				terms, err := mgr.ListTerminationsByDevice(device.ID)
				if err != nil {
					return err
				}
				for _, term := range terms {
					state := "free"
					if term.CableID != "" {
						state = "cabled"
					}
					fmt.Printf("  %-24s %-28s %s\n", term.Name, term.Type, state)
				}
			}
			return nil
		})
	},
}

func init() {
	deviceCmd.AddCommand(deviceListCmd)
}

// Cable commands
var cableCmd = &cobra.Command{
	Use:   "cable",
	Short: "Manage cables",
}

var cableCreateCmd = &cobra.Command{
	Use:   "create A B",
	Short: "Create a cable between two endpoints",
	Long: `Create a cable between two endpoints.

Endpoints use device:termination or circuit:CID:side syntax:

  tracewire cable create server1:eth0 panelA:front1
  tracewire cable create panelA:rear1 circuit:NET-001:A --length 30 --unit m`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		cableType, _ := cmd.Flags().GetString("type")
		label, _ := cmd.Flags().GetString("label")
		length, _ := cmd.Flags().GetFloat64("length")
		unit, _ := cmd.Flags().GetString("unit")

		return withManager(func(mgr *manager.Manager) error {
			termA, err := resolveEndpoint(mgr, args[0])
			if err != nil {
				return err
			}
			termB, err := resolveEndpoint(mgr, args[1])
			if err != nil {
				return err
			}

			spec := manager.CableSpec{
				TerminationA: termA.Ref(),
				TerminationB: termB.Ref(),
				Type:         cableType,
				Status:       types.CableStatus(status),
				Label:        label,
			}
			if cmd.Flags().Changed("length") {
				spec.Length = &length
				spec.LengthUnit = types.LengthUnit(unit)
			}

			cable, err := mgr.CreateCable(spec)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Cable created: %s\n", cable.ID)
			return nil
		})
	},
}

var cableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			cables, err := mgr.ListCables()
			if err != nil {
				return err
			}
			for _, cable := range cables {
				fmt.Printf("%-36s %-16s %s <-> %s\n",
					cable.ID, cable.Status, cable.TerminationA, cable.TerminationB)
			}
			return nil
		})
	},
}

var cableStatusCmd = &cobra.Command{
	Use:   "status ID STATUS",
	Short: "Change a cable's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			status := types.CableStatus(args[1])
			if _, err := mgr.UpdateCable(args[0], manager.CableUpdate{Status: &status}); err != nil {
				return err
			}
			fmt.Printf("✓ Cable %s is now %s\n", args[0], status)
			return nil
		})
	},
}

var cableDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a cable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			if err := mgr.DeleteCable(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Cable %s deleted\n", args[0])
			return nil
		})
	},
}

func init() {
	cableCmd.AddCommand(cableCreateCmd)
	cableCmd.AddCommand(cableListCmd)
	cableCmd.AddCommand(cableStatusCmd)
	cableCmd.AddCommand(cableDeleteCmd)

	cableCreateCmd.Flags().String("status", "connected", "Cable status")
	cableCreateCmd.Flags().String("type", "", "Physical medium")
	cableCreateCmd.Flags().String("label", "", "Cable label")
	cableCreateCmd.Flags().Float64("length", 0, "Cable length")
	cableCreateCmd.Flags().String("unit", "m", "Length unit (m, cm, ft, in)")
}
