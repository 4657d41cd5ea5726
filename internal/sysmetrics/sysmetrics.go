// Package sysmetrics samples the generator's own process and exposes
// the readings as gauges. Sampling is opt-in; the default exposition
// stays untouched.
package sysmetrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// Collector samples CPU time, resident memory, and goroutine count for
// the current process.
type Collector struct {
	proc *process.Process

	cpuTime    prometheus.Gauge
	memRSS     prometheus.Gauge
	goroutines prometheus.Gauge
}

// NewCollector creates a Collector and registers its gauges. The
// sys_ prefix keeps the names clear of the standard process collector.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open process handle: %w", err)
	}

	c := &Collector{
		proc: proc,
		cpuTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sys_process_cpu_time_seconds",
			Help: "Cumulative user plus system CPU time of the generator process",
		}),
		memRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sys_process_memory_rss_bytes",
			Help: "Resident set size of the generator process",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sys_goroutines",
			Help: "Number of goroutines in the generator process",
		}),
	}

	if err := reg.Register(c.cpuTime); err != nil {
		return nil, fmt.Errorf("failed to register sys gauges: %w", err)
	}
	if err := reg.Register(c.memRSS); err != nil {
		return nil, fmt.Errorf("failed to register sys gauges: %w", err)
	}
	if err := reg.Register(c.goroutines); err != nil {
		return nil, fmt.Errorf("failed to register sys gauges: %w", err)
	}

	return c, nil
}

// Collect updates all gauges with current readings. Probe errors leave
// the previous value in place.
func (c *Collector) Collect() {
	if ts, err := c.proc.Times(); err == nil {
		c.cpuTime.Set(ts.User + ts.System)
	}
	if info, err := c.proc.MemoryInfo(); err == nil {
		c.memRSS.Set(float64(info.RSS))
	}
	c.goroutines.Set(float64(runtime.NumGoroutine()))
}

// Start samples immediately and then on every interval. The returned
// stop function cancels the loop; call it exactly once.
func (c *Collector) Start(interval time.Duration) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
