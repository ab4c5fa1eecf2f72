package metrics

import (
	"time"

	"github.com/tracewire/tracewire/pkg/storage"
	"github.com/tracewire/tracewire/pkg/types"
)

// Collector periodically snapshots inventory gauges from the store.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectDeviceMetrics()
	c.collectTerminationMetrics()
	c.collectCableMetrics()
	c.collectPathMetrics()
}

func (c *Collector) collectDeviceMetrics() {
	devices, err := c.store.ListDevices()
	if err != nil {
		return
	}

	DevicesTotal.Set(float64(len(devices)))
}

func (c *Collector) collectTerminationMetrics() {
	terms, err := c.store.ListTerminations()
	if err != nil {
		return
	}

	counts := make(map[types.ObjectType]int)
	for _, term := range terms {
		counts[term.Type]++
	}

	for termType, count := range counts {
		TerminationsTotal.WithLabelValues(string(termType)).Set(float64(count))
	}
}

func (c *Collector) collectCableMetrics() {
	cables, err := c.store.ListCables()
	if err != nil {
		return
	}

	counts := make(map[types.CableStatus]int)
	for _, cable := range cables {
		counts[cable.Status]++
	}

	// Zero every known status so a count that drops to zero is visible.
	for _, status := range []types.CableStatus{
		types.CableStatusConnected,
		types.CableStatusPlanned,
		types.CableStatusDecommissioning,
	} {
		CablesTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func (c *Collector) collectPathMetrics() {
	paths, err := c.store.ListPaths()
	if err != nil {
		return
	}

	var active, split, partial int
	for _, path := range paths {
		switch {
		case path.IsActive:
			active++
		case path.IsSplit:
			split++
		default:
			partial++
		}
	}

	PathsTotal.WithLabelValues("active").Set(float64(active))
	PathsTotal.WithLabelValues("split").Set(float64(split))
	PathsTotal.WithLabelValues("partial").Set(float64(partial))
}
