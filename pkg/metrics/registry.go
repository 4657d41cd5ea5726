package metrics

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names as they appear in the exposition.
const (
	NameRequestCount       = "request_count"
	NameRAMTestMetricCount = "ram_test_metric_count"
	NameRoomTemperature    = "room_temperature"
)

// Help texts for the built-in metrics.
const (
	HelpRequestCount       = "Total HTTP requests served"
	HelpRAMTestMetricCount = "Ram's sample custom metric"
	HelpRoomTemperature    = "Simulated room temperature in Celsius"
)

// Temperature bounds in Celsius. Values are drawn from [TempMin, TempMax).
const (
	TempMin = 20.0
	TempMax = 35.0
)

// Registry holds the generator's metrics on a private Prometheus
// registry. All operations are safe for concurrent use. Readers may
// observe a scrape between the individual updates of one tick; each
// metric on its own is always consistent.
type Registry struct {
	reg *prometheus.Registry

	requestCount       prometheus.Counter
	ramTestMetricCount prometheus.Counter
	roomTemperature    prometheus.Gauge

	ticks atomic.Uint64

	mu     sync.RWMutex
	custom []*customMetric
}

// New creates a Registry with the three built-in metrics at zero.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: NameRequestCount,
			Help: HelpRequestCount,
		}),
		ramTestMetricCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: NameRAMTestMetricCount,
			Help: HelpRAMTestMetricCount,
		}),
		roomTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: NameRoomTemperature,
			Help: HelpRoomTemperature,
		}),
	}

	r.reg.MustRegister(r.requestCount, r.ramTestMetricCount, r.roomTemperature)
	return r
}

// IncRequestCount increments request_count by one.
func (r *Registry) IncRequestCount() {
	r.requestCount.Inc()
}

// IncRAMTestMetricCount increments ram_test_metric_count by one.
func (r *Registry) IncRAMTestMetricCount() {
	r.ramTestMetricCount.Inc()
}

// SetRoomTemperature sets the room_temperature gauge.
func (r *Registry) SetRoomTemperature(v float64) {
	r.roomTemperature.Set(v)
}

// RandomTemperature returns a uniform random Celsius value in
// [TempMin, TempMax).
func RandomTemperature() float64 {
	return TempMin + rand.Float64()*(TempMax-TempMin)
}

// Tick performs one update step: both counters increment by one and
// the temperature gauge gets a fresh random value. Custom metrics
// update afterwards with the new tick number in scope.
func (r *Registry) Tick() {
	r.requestCount.Inc()
	r.ramTestMetricCount.Inc()
	r.roomTemperature.Set(RandomTemperature())

	n := r.ticks.Add(1)

	r.mu.RLock()
	custom := r.custom
	r.mu.RUnlock()

	for _, m := range custom {
		m.tick(n)
	}
}

// Ticks returns how many update steps have run.
func (r *Registry) Ticks() uint64 {
	return r.ticks.Load()
}

// Handler returns the HTTP handler serving the text exposition
// (text/plain; version=0.0.4).
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Registerer exposes the underlying registry for additional collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for scraping in-process.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// EnableGoCollectors adds the standard Go runtime and process
// collectors to the exposition. Off by default so the stock output
// stays at exactly the three built-in metrics.
func (r *Registry) EnableGoCollectors() {
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Snapshot is a point-in-time view of the generator's metric values.
type Snapshot struct {
	RequestCount       float64
	RAMTestMetricCount float64
	RoomTemperature    float64

	// Custom maps custom metric names to their current values.
	// Nil when no custom metrics are registered.
	Custom map[string]float64
}

// Snapshot gathers the current values of the built-in and custom
// metrics. Collector-provided families (Go runtime, process) are
// ignored.
func (r *Registry) Snapshot() Snapshot {
	var snap Snapshot

	r.mu.RLock()
	customNames := make(map[string]bool, len(r.custom))
	for _, m := range r.custom {
		customNames[m.def.Name] = true
	}
	r.mu.RUnlock()

	families, err := r.reg.Gather()
	if err != nil && families == nil {
		return snap
	}

	for _, mf := range families {
		ms := mf.GetMetric()
		if len(ms) == 0 {
			continue
		}

		var v float64
		switch {
		case ms[0].GetCounter() != nil:
			v = ms[0].GetCounter().GetValue()
		case ms[0].GetGauge() != nil:
			v = ms[0].GetGauge().GetValue()
		default:
			continue
		}

		switch name := mf.GetName(); name {
		case NameRequestCount:
			snap.RequestCount = v
		case NameRAMTestMetricCount:
			snap.RAMTestMetricCount = v
		case NameRoomTemperature:
			snap.RoomTemperature = v
		default:
			if customNames[name] {
				if snap.Custom == nil {
					snap.Custom = make(map[string]float64)
				}
				snap.Custom[name] = v
			}
		}
	}

	return snap
}
