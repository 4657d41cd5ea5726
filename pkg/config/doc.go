// Package config provides configuration types and loading for the metrics generator.
//
// This package defines the configuration structures used by the generator:
//   - Config: Generator settings like port, update interval, and logging
//   - CustomMetric: Declares an additional synthetic metric to publish
//   - Source constants: Identify where each config value originated
//
// Layered Configuration:
//
// Values are resolved with the following precedence (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables (METRICSD_* prefix)
//  3. Config file (YAML or JSON)
//  4. Default values
//
// Each resolved value records its origin in Config.Sources for debugging.
//
// File-based Configuration:
//
// Settings can be loaded from YAML or JSON files:
//
//	cfg, err := config.Load("metricsd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The YAML format follows the Config structure:
//
//	port: 8080
//	interval: 2s
//	log:
//	  level: info
//	  format: text
//	customMetrics:
//	  - name: queue_depth
//	    help: Simulated queue depth
//	    type: gauge
//	    range:
//	      min: 0
//	      max: 100
package config
