// Package cli provides the command-line interface for metricsd.
//
// The cli package implements all CLI commands for the metrics generator:
//   - serve: Start the generator in the foreground (also the default
//     when no subcommand is given)
//   - check: Scrape a running generator and verify its exposition
//   - query: Run an instant PromQL query against a Prometheus server
//   - validate: Validate a configuration file without starting anything
//   - init: Create a starter configuration file
//   - version: Show metricsd version
//
// Configuration is resolved from four layers, lowest to highest
// precedence: built-in defaults, a config file (--config or
// METRICSD_CONFIG), METRICSD_* environment variables, and command-line
// flags.
//
// The serve command runs in the foreground until interrupted. It writes
// a PID file (~/.metricsd/metricsd.pid by default) that check uses to
// discover the running generator.
//
// Usage:
//
//	metricsd serve --port 8080 --interval 2s
//	metricsd serve --config metricsd.yaml
//	metricsd check
//	metricsd query 'rate(request_count[5m])'
//	metricsd init --defaults
package cli
