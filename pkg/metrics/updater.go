package metrics

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/metricsd/pkg/logging"
)

// DefaultInterval is the stock time between update ticks.
const DefaultInterval = 2 * time.Second

// Updater drives a Registry's Tick on a fixed interval. The first
// tick fires one full interval after Start, so a scrape right after
// startup still sees the initial zeros. An Updater is not restartable;
// create a new one after Stop.
type Updater struct {
	registry *Registry
	interval time.Duration

	mu  sync.Mutex
	log *slog.Logger

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewUpdater creates an Updater for the registry. Non-positive
// intervals fall back to DefaultInterval.
func NewUpdater(registry *Registry, interval time.Duration) *Updater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Updater{
		registry: registry,
		interval: interval,
		log:      logging.Nop(),
		done:     make(chan struct{}),
	}
}

// SetLogger sets the operational logger for the update loop.
func (u *Updater) SetLogger(log *slog.Logger) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if log != nil {
		u.log = log
	} else {
		u.log = logging.Nop()
	}
}

func (u *Updater) logger() *slog.Logger {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.log
}

// Interval returns the configured time between ticks.
func (u *Updater) Interval() time.Duration {
	return u.interval
}

// Start launches the update loop and returns immediately. Calling
// Start on a running updater is a no-op.
func (u *Updater) Start() {
	if !u.running.CompareAndSwap(false, true) {
		return
	}

	u.wg.Add(1)
	go u.run()
}

func (u *Updater) run() {
	defer u.wg.Done()

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.registry.Tick()
			u.logger().Debug("metrics updated", "ticks", u.registry.Ticks())
		case <-u.done:
			return
		}
	}
}

// Stop signals the loop to exit and waits for it. Safe to call more
// than once and before Start.
func (u *Updater) Stop() {
	u.stopOnce.Do(func() {
		close(u.done)
	})
	u.wg.Wait()
	u.running.Store(false)
}

// Running reports whether the update loop is active.
func (u *Updater) Running() bool {
	return u.running.Load()
}
