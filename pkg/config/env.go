package config

import (
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvPort          = "METRICSD_PORT"
	EnvInterval      = "METRICSD_INTERVAL"
	EnvLogLevel      = "METRICSD_LOG_LEVEL"
	EnvLogFormat     = "METRICSD_LOG_FORMAT"
	EnvLokiEndpoint  = "METRICSD_LOKI_ENDPOINT"
	EnvSelfMetrics   = "METRICSD_SELF_METRICS"
	EnvGoCollectors  = "METRICSD_GO_COLLECTORS"
	EnvSystemMetrics = "METRICSD_SYSTEM_METRICS"
	EnvConfig        = "METRICSD_CONFIG"
)

// ApplyEnv overlays configuration from environment variables.
// It only sets values that are present in the environment.
func ApplyEnv(cfg *Config) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	// METRICSD_PORT
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
			cfg.Sources["port"] = SourceEnv
		}
	}

	// METRICSD_INTERVAL
	if v := os.Getenv(EnvInterval); v != "" {
		cfg.Interval = v
		cfg.Sources["interval"] = SourceEnv
	}

	// METRICSD_LOG_LEVEL
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
		cfg.Sources["logLevel"] = SourceEnv
	}

	// METRICSD_LOG_FORMAT
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
		cfg.Sources["logFormat"] = SourceEnv
	}

	// METRICSD_LOKI_ENDPOINT
	if v := os.Getenv(EnvLokiEndpoint); v != "" {
		cfg.Log.LokiEndpoint = v
		cfg.Sources["lokiEndpoint"] = SourceEnv
	}

	// METRICSD_SELF_METRICS
	if v := os.Getenv(EnvSelfMetrics); v != "" {
		cfg.SelfMetrics = v == "true" || v == "1" || v == "yes"
		cfg.Sources["selfMetrics"] = SourceEnv
	}

	// METRICSD_GO_COLLECTORS
	if v := os.Getenv(EnvGoCollectors); v != "" {
		cfg.GoCollectors = v == "true" || v == "1" || v == "yes"
		cfg.Sources["goCollectors"] = SourceEnv
	}

	// METRICSD_SYSTEM_METRICS
	if v := os.Getenv(EnvSystemMetrics); v != "" {
		cfg.SystemMetrics = v == "true" || v == "1" || v == "yes"
		cfg.Sources["systemMetrics"] = SourceEnv
	}
}

// ConfigFileFromEnv returns the config file path from the environment.
// Returns empty string if not set.
func ConfigFileFromEnv() string {
	return os.Getenv(EnvConfig)
}
