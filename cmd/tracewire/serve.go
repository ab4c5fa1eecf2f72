package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/log"
	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/metrics"
	"github.com/tracewire/tracewire/pkg/reconciler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connectivity service",
	Long: `Run tracewire as a long-lived service: the path consistency sweeper,
Prometheus metrics and health endpoints.

  /metrics   Prometheus exposition
  /health    liveness of all registered components
  /ready     readiness of storage and broker
  /live      process liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		interval, _ := cmd.Flags().GetDuration("sweep-interval")

		return withManager(func(mgr *manager.Manager) error {
			metrics.SetVersion(Version)

			collector := metrics.NewCollector(mgr.Store())
			collector.Start()
			defer collector.Stop()

			sweeper := reconciler.NewReconciler(mgr, interval)
			sweeper.Start()
			defer sweeper.Stop()
			fmt.Printf("✓ Sweeper started (interval %s)\n", interval)

			// Log connectivity events as they happen.
			events := mgr.Events().Subscribe()
			defer mgr.Events().Unsubscribe(events)
			go func() {
				logger := log.WithComponent("events")
				for event := range events {
					logger.Info().
						Str("type", string(event.Type)).
						Msg(event.Message)
				}
			}()

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.HandleFunc("/health", metrics.HealthHandler())
			mux.HandleFunc("/ready", metrics.ReadyHandler())
			mux.HandleFunc("/live", metrics.LivenessHandler())

			server := &http.Server{Addr: listenAddr, Handler: mux}
			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- fmt.Errorf("http server error: %v", err)
				}
			}()
			fmt.Printf("✓ Listening on %s\n", listenAddr)
			fmt.Println()
			fmt.Println("Service is running. Press Ctrl+C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case <-sigCh:
				fmt.Println("\nShutting down...")
			case err := <-errCh:
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			}

			_ = server.Close()
			fmt.Println("✓ Shutdown complete")
			return nil
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one path consistency sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(mgr *manager.Manager) error {
			sweeper := reconciler.NewReconciler(mgr, 0)
			repaired, err := sweeper.Sweep()
			if err != nil {
				return err
			}
			if repaired == 0 {
				fmt.Println("✓ All paths consistent")
			} else {
				fmt.Printf("✓ Repaired %d stale paths\n", repaired)
			}
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().String("listen", "127.0.0.1:9814", "Address for metrics and health endpoints")
	serveCmd.Flags().Duration("sweep-interval", 60*time.Second, "Path consistency sweep interval")

	rootCmd.AddCommand(serveCmd)
}
