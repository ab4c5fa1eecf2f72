package reconciler

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tracewire/tracewire/pkg/log"
	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/metrics"
	"github.com/tracewire/tracewire/pkg/registry"
	"github.com/tracewire/tracewire/pkg/types"
)

// DefaultInterval is how often the sweeper runs when not configured.
const DefaultInterval = 60 * time.Second

// Reconciler ensures materialized paths match what a fresh trace of the
// cable graph would produce. The manager keeps paths current synchronously;
// the sweeper is the safety net for recompute failures and external edits to
// the store.
type Reconciler struct {
	manager  *manager.Manager
	interval time.Duration
	logger   zerolog.Logger
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(mgr *manager.Manager, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		manager:  mgr,
		interval: interval,
		logger:   log.WithComponent("reconciler"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Sweep(); err != nil {
				r.logger.Error().Err(err).Msg("Sweep failed")
			}
		case <-r.stopCh:
			return
		}
	}
}

// Sweep performs one consistency pass and returns how many paths it
// repaired. Safe to call concurrently with the loop; passes serialize.
func (r *Reconciler) Sweep() (int, error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.SweepDuration)
		metrics.SweepCyclesTotal.Inc()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	repaired, err := r.sweepStoredPaths()
	if err != nil {
		return repaired, err
	}

	missing, err := r.sweepMissingPaths()
	repaired += missing
	if err != nil {
		return repaired, err
	}

	if repaired > 0 {
		r.logger.Info().Int("repaired", repaired).Msg("Sweep repaired stale paths")
		metrics.SweepRepairsTotal.Add(float64(repaired))
	}
	return repaired, nil
}

// sweepStoredPaths re-traces every stored path and replaces the ones that no
// longer match the live cable graph.
func (r *Reconciler) sweepStoredPaths() (int, error) {
	paths, err := r.manager.ListPaths()
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, stored := range paths {
		stale, err := r.isStale(stored)
		if err != nil {
			r.logger.Error().Err(err).
				Str("origin", stored.Origin.String()).
				Msg("Failed to check path")
			continue
		}
		if !stale {
			continue
		}

		r.logger.Warn().
			Str("origin", stored.Origin.String()).
			Str("path_id", stored.ID).
			Msg("Stale path, recomputing")
		if err := r.manager.RecomputePath(stored.Origin); err != nil {
			r.logger.Error().Err(err).
				Str("origin", stored.Origin.String()).
				Msg("Failed to recompute path")
			continue
		}
		repaired++
	}
	return repaired, nil
}

// sweepMissingPaths materializes paths for cabled endpoints that have none.
func (r *Reconciler) sweepMissingPaths() (int, error) {
	terminations, err := r.manager.Store().ListTerminations()
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, term := range terminations {
		if term.CableID == "" || term.PathID != "" || registry.IsPassThrough(term.Type) {
			continue
		}
		r.logger.Warn().
			Str("origin", term.Ref().String()).
			Msg("Cabled endpoint has no path, materializing")
		if err := r.manager.RecomputePath(term.Ref()); err != nil {
			r.logger.Error().Err(err).
				Str("origin", term.Ref().String()).
				Msg("Failed to materialize path")
			continue
		}
		repaired++
	}
	return repaired, nil
}

// isStale reports whether a stored path differs from a fresh trace of its
// origin.
func (r *Reconciler) isStale(stored *types.CablePath) (bool, error) {
	term, err := r.manager.GetTermination(stored.Origin)
	if err != nil {
		if errors.Is(err, types.ErrTerminationNotFound) {
			// Origin gone entirely; RecomputePath removes the orphan.
			return true, nil
		}
		return false, err
	}
	if term.CableID == "" {
		return true, nil
	}

	result, err := r.manager.Trace(stored.Origin)
	if err != nil {
		return false, err
	}

	if len(result.Nodes) != len(stored.Path) {
		return true, nil
	}
	for i, node := range result.Nodes {
		if node != stored.Path[i] {
			return true, nil
		}
	}
	if (result.Destination == nil) != (stored.Destination == nil) {
		return true, nil
	}
	if result.Destination != nil && *result.Destination != *stored.Destination {
		return true, nil
	}
	isActive := result.Destination != nil && result.AllConnected
	if isActive != stored.IsActive || result.IsSplit() != stored.IsSplit {
		return true, nil
	}
	return false, nil
}
