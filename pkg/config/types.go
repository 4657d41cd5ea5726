package config

import (
	"fmt"
	"regexp"
	"time"
)

// Config value sources, recorded in Config.Sources for debugging.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Default values for generator settings.
const (
	DefaultPort         = 8080
	DefaultInterval     = "2s"
	DefaultReadTimeout  = "30s"
	DefaultWriteTimeout = "30s"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// metricNamePattern is the Prometheus metric name grammar.
var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// reservedMetricNames are the built-in metrics every generator publishes.
// Custom metrics may not reuse them.
var reservedMetricNames = map[string]bool{
	"request_count":         true,
	"ram_test_metric_count": true,
	"room_temperature":      true,
}

// LogConfig holds logging settings for the generator.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the log output format (text or json)
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// LokiEndpoint, when set, ships logs to a Loki push API URL
	LokiEndpoint string `json:"lokiEndpoint,omitempty" yaml:"lokiEndpoint,omitempty"`
}

// RangeSpec defines a uniform random value source [Min, Max).
type RangeSpec struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// CustomMetric declares an additional synthetic metric to publish
// alongside the built-in three. Exactly one of Range or Expr must be
// set: Range draws a uniform random value each tick, Expr evaluates
// an expression with tick, now, rand() and randRange(min, max) in
// scope.
type CustomMetric struct {
	// Name is the metric name as it appears in the exposition
	Name string `json:"name" yaml:"name"`
	// Help is the HELP text for the metric
	Help string `json:"help,omitempty" yaml:"help,omitempty"`
	// Type is "counter" or "gauge"
	Type string `json:"type" yaml:"type"`
	// Range draws a uniform random value in [Min, Max) each tick
	Range *RangeSpec `json:"range,omitempty" yaml:"range,omitempty"`
	// Expr is an expression evaluated each tick to produce the value
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Config holds all settings for the metrics generator.
type Config struct {
	// Port is the TCP port the exposition server listens on (0 picks a free port)
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
	// Interval is how often metric values update (Go duration string, e.g. "2s")
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`
	// ReadTimeout is the HTTP server read timeout
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP server write timeout
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// Log configures logging output
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
	// SelfMetrics instruments the /metrics handler with scrape counters
	SelfMetrics bool `json:"selfMetrics,omitempty" yaml:"selfMetrics,omitempty"`
	// GoCollectors adds Go runtime and process collectors to the exposition
	GoCollectors bool `json:"goCollectors,omitempty" yaml:"goCollectors,omitempty"`
	// SystemMetrics samples process CPU/memory via gopsutil
	SystemMetrics bool `json:"systemMetrics,omitempty" yaml:"systemMetrics,omitempty"`
	// SystemInterval is how often system metrics are sampled (defaults to Interval)
	SystemInterval string `json:"systemInterval,omitempty" yaml:"systemInterval,omitempty"`
	// CustomMetrics declares additional synthetic metrics
	CustomMetrics []CustomMetric `json:"customMetrics,omitempty" yaml:"customMetrics,omitempty"`

	// Sources maps field names to where their values came from.
	// Not serialized; populated during resolution.
	Sources map[string]string `json:"-" yaml:"-"`
}

// Default returns a Config reproducing the stock generator: port 8080,
// 2s interval, the three built-in metrics, all extras off.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		Interval:     DefaultInterval,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sources: map[string]string{
			"port":         SourceDefault,
			"interval":     SourceDefault,
			"readTimeout":  SourceDefault,
			"writeTimeout": SourceDefault,
			"logLevel":     SourceDefault,
			"logFormat":    SourceDefault,
		},
	}
}

// IntervalDuration returns the parsed update interval. Call Validate
// first; unparseable values fall back to the default.
func (c *Config) IntervalDuration() time.Duration {
	return parseDurationOr(c.Interval, DefaultInterval)
}

// ReadTimeoutDuration returns the parsed HTTP read timeout.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return parseDurationOr(c.ReadTimeout, DefaultReadTimeout)
}

// WriteTimeoutDuration returns the parsed HTTP write timeout.
func (c *Config) WriteTimeoutDuration() time.Duration {
	return parseDurationOr(c.WriteTimeout, DefaultWriteTimeout)
}

// SystemIntervalDuration returns the system sampling interval,
// defaulting to the update interval when unset.
func (c *Config) SystemIntervalDuration() time.Duration {
	if c.SystemInterval == "" {
		return c.IntervalDuration()
	}
	return parseDurationOr(c.SystemInterval, DefaultInterval)
}

func parseDurationOr(s, fallback string) time.Duration {
	if s == "" {
		s = fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Port)
	}

	if c.Interval != "" {
		d, err := time.ParseDuration(c.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", c.Interval, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid interval %q: must be positive", c.Interval)
		}
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"readTimeout", c.ReadTimeout},
		{"writeTimeout", c.WriteTimeout},
		{"systemInterval", c.SystemInterval},
	} {
		if field.value == "" {
			continue
		}
		d, err := time.ParseDuration(field.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.value, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s %q: must not be negative", field.name, field.value)
		}
	}

	seen := make(map[string]bool)
	for i, m := range c.CustomMetrics {
		if m.Name == "" {
			return fmt.Errorf("custom metric %d: name is required", i)
		}
		if !metricNamePattern.MatchString(m.Name) {
			return fmt.Errorf("custom metric %q: invalid metric name", m.Name)
		}
		if reservedMetricNames[m.Name] {
			return fmt.Errorf("custom metric %q: name conflicts with a built-in metric", m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("custom metric %q: duplicate name", m.Name)
		}
		seen[m.Name] = true

		if m.Type != "counter" && m.Type != "gauge" {
			return fmt.Errorf("custom metric %q: type must be counter or gauge, got %q", m.Name, m.Type)
		}

		hasRange := m.Range != nil
		hasExpr := m.Expr != ""
		if hasRange == hasExpr {
			return fmt.Errorf("custom metric %q: exactly one of range or expr must be set", m.Name)
		}
		if hasRange && m.Range.Min >= m.Range.Max {
			return fmt.Errorf("custom metric %q: range min must be less than max", m.Name)
		}
	}

	return nil
}
