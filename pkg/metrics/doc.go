// Package metrics holds the generator's metric registry and update loop.
//
// The registry is built on github.com/prometheus/client_golang with a
// private prometheus.Registry, so the default exposition contains
// exactly the generator's metrics and nothing else.
//
// # Built-in Metrics
//
// Every registry publishes three metrics:
//
//   - request_count: Counter, +1 per update tick
//   - ram_test_metric_count: Counter, +1 per update tick
//   - room_temperature: Gauge, uniform random Celsius in [20, 35) per tick
//
// All three start at zero and stay there until the first tick.
//
// # Update Loop
//
// An Updater drives the registry on a fixed interval:
//
//	reg := metrics.New()
//	updater := metrics.NewUpdater(reg, 2*time.Second)
//	updater.Start()
//	defer updater.Stop()
//
//	http.Handle("/metrics", reg.Handler())
//
// The first tick fires one full interval after Start, so a scrape at
// startup sees the initial zeros.
//
// # Custom Metrics
//
// Additional synthetic metrics can be registered before the loop
// starts. Each draws a uniform random value from a range or evaluates
// an expression every tick:
//
//	err := reg.RegisterCustom(metrics.Definition{
//	    Name: "queue_depth",
//	    Help: "Simulated queue depth",
//	    Type: "gauge",
//	    Min:  0,
//	    Max:  100,
//	})
package metrics
