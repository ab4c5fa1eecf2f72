package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/trace"
	"github.com/tracewire/tracewire/pkg/types"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	badColor  = color.New(color.FgRed)
)

var traceCmd = &cobra.Command{
	Use:   "trace ENDPOINT",
	Short: "Trace the cable chain from an endpoint",
	Long: `Walk the live cable graph from an endpoint and print every hop.

Examples:
  tracewire trace server1:eth0
  tracewire trace circuit:NET-001:A --no-circuits`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			origin, err := resolveEndpoint(mgr, args[0])
			if err != nil {
				return err
			}

			var result *trace.Result
			if noCircuits, _ := cmd.Flags().GetBool("no-circuits"); noCircuits {
				tracer := trace.NewTracer(mgr.Store())
				tracer.FollowCircuits = false
				result, err = tracer.Trace(origin.Ref())
			} else {
				result, err = mgr.Trace(origin.Ref())
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", describeRef(mgr, result.Origin))
			for _, hop := range result.Hops {
				cable, err := mgr.GetCable(hop.Cable)
				if err != nil {
					return err
				}
				marker := "══"
				if cable.Status != types.CableStatusConnected {
					marker = warnColor.Sprintf("══ (%s)", cable.Status)
				}
				fmt.Printf("  %s %s\n", marker, describeCable(cable))
				fmt.Printf("%s\n", describeRef(mgr, hop.Far))
			}

			switch {
			case result.Destination != nil:
				if result.AllConnected {
					okColor.Println("✓ connected")
				} else {
					warnColor.Println("~ reachable, but not every cable is connected")
				}
			case result.LoopDetected:
				badColor.Println("✗ cable loop detected")
			case result.IsSplit():
				warnColor.Printf("? splits into %d front ports:\n", len(result.Split))
				for _, branch := range result.Split {
					fmt.Printf("    %s\n", describeRef(mgr, branch))
				}
			case len(result.Hops) == 0:
				fmt.Println("- no cable attached")
			default:
				badColor.Println("✗ chain ends without reaching an endpoint")
			}
			return nil
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Inspect materialized paths",
}

var pathListCmd = &cobra.Command{
	Use:   "list",
	Short: "List materialized paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			paths, err := mgr.ListPaths()
			if err != nil {
				return err
			}
			for _, path := range paths {
				destination := "-"
				if path.Destination != nil {
					destination = describeRef(mgr, *path.Destination)
				}
				state := pathState(path)
				fmt.Printf("%-36s %-10s %-3d %s -> %s\n",
					path.ID, state, path.SegmentCount(),
					describeRef(mgr, path.Origin), destination)
			}
			return nil
		})
	},
}

var pathShowCmd = &cobra.Command{
	Use:   "show ENDPOINT",
	Short: "Show the materialized path from an endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			origin, err := resolveEndpoint(mgr, args[0])
			if err != nil {
				return err
			}
			path, err := mgr.PathForOrigin(origin.Ref())
			if err != nil {
				return err
			}

			nodes, err := mgr.ResolvePath(path)
			if err != nil {
				return err
			}

			fmt.Printf("Path %s (%s, %d segments)\n", path.ID, pathState(path), path.SegmentCount())
			for _, node := range nodes {
				if node.Cable != nil {
					fmt.Printf("  ══ %s\n", describeCable(node.Cable))
					continue
				}
				fmt.Printf("%s\n", describeTermination(node.Termination, node.Device))
			}

			total, complete, err := mgr.PathTotalLength(path)
			if err != nil {
				return err
			}
			if total > 0 || complete {
				suffix := ""
				if !complete {
					suffix = " (some cables unmeasured)"
				}
				fmt.Printf("Total length: %.2f m%s\n", float64(total)/1e6, suffix)
			}
			return nil
		})
	},
}

func init() {
	pathCmd.AddCommand(pathListCmd)
	pathCmd.AddCommand(pathShowCmd)

	traceCmd.Flags().Bool("no-circuits", false,
		"Stop at circuit terminations instead of following the circuit")

	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(pathCmd)
}

func pathState(path *types.CablePath) string {
	switch {
	case path.IsActive:
		return okColor.Sprint("active")
	case path.IsSplit:
		return warnColor.Sprint("split")
	default:
		return badColor.Sprint("partial")
	}
}

func describeCable(cable *types.Cable) string {
	name := cable.ID
	if cable.Label != "" {
		name = cable.Label
	}
	if cable.Length != nil {
		return fmt.Sprintf("%s (%v %s)", name, *cable.Length, cable.LengthUnit)
	}
	return name
}

func describeRef(mgr *manager.Manager, ref types.Ref) string {
	term, err := mgr.GetTermination(ref)
	if err != nil {
		return ref.String()
	}
	var device *types.Device
	if term.DeviceID != "" {
		device, _ = mgr.GetDevice(term.DeviceID)
	}
	return describeTermination(term, device)
}

func describeTermination(term *types.Termination, device *types.Device) string {
	if term.Type == types.TypeCircuitTermination {
		return fmt.Sprintf("circuit %s side %s", term.CircuitID, term.Side)
	}
	owner := term.DeviceID
	if device != nil {
		owner = device.Name
	}
	return fmt.Sprintf("%s:%s (%s)", owner, term.Name, term.Type)
}
