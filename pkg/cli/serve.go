package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getmockd/metricsd/internal/sysmetrics"
	"github.com/getmockd/metricsd/pkg/cli/internal/output"
	"github.com/getmockd/metricsd/pkg/cli/internal/ports"
	"github.com/getmockd/metricsd/pkg/config"
	"github.com/getmockd/metricsd/pkg/logging"
	"github.com/getmockd/metricsd/pkg/metrics"
	"github.com/getmockd/metricsd/pkg/server"
	"github.com/spf13/cobra"
)

// serveFlags holds all flag values for the serve command.
type serveFlags struct {
	port           int
	interval       string
	configFile     string
	readTimeout    string
	writeTimeout   string
	logLevel       string
	logFormat      string
	lokiEndpoint   string
	selfMetrics    bool
	goCollectors   bool
	systemMetrics  bool
	systemInterval string
	pidFile        string
}

// serveFlagVals is shared between the root command and the serve
// subcommand so that "metricsd" and "metricsd serve" behave the same.
var serveFlagVals serveFlags

// serveContext carries everything built during startup into the main loop.
type serveContext struct {
	cfg         *config.Config
	configPath  string
	pidFile     string
	log         *slog.Logger
	lokiHandler *logging.LokiHandler
	registry    *metrics.Registry
	server      *server.Server
	updater     *metrics.Updater
	sampler     *sysmetrics.Collector
	stopSampler func()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metrics generator (foreground)",
	Long: `Start the metrics generator in the foreground.

The generator serves the Prometheus text exposition format on /metrics
and updates the published values in the background on a fixed interval.
It runs until interrupted (Ctrl+C) or killed.`,
	Example: `  # Start with defaults (port 8080, 2s updates)
  metricsd serve

  # Custom port and update interval
  metricsd serve --port 9090 --interval 5s

  # Load settings and custom metrics from a config file
  metricsd serve --config metricsd.yaml

  # Ship logs to Loki alongside stderr
  metricsd serve --loki-endpoint http://localhost:3100/loki/api/v1/push`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd)
}

// registerServeFlags binds the serve flag set to cmd. Applied to both
// the root command and the serve subcommand, writing into the shared
// serveFlagVals.
func registerServeFlags(cmd *cobra.Command) {
	f := &serveFlagVals
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "Exposition server port")
	cmd.Flags().StringVar(&f.interval, "interval", config.DefaultInterval, "Metric update interval (Go duration, e.g. 2s, 500ms)")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&f.readTimeout, "read-timeout", config.DefaultReadTimeout, "HTTP read timeout")
	cmd.Flags().StringVar(&f.writeTimeout, "write-timeout", config.DefaultWriteTimeout, "HTTP write timeout")
	cmd.Flags().StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	cmd.Flags().StringVar(&f.lokiEndpoint, "loki-endpoint", "", "Loki push endpoint for log aggregation")
	cmd.Flags().BoolVar(&f.selfMetrics, "self-metrics", false, "Instrument the /metrics handler with scrape counters")
	cmd.Flags().BoolVar(&f.goCollectors, "go-collectors", false, "Expose Go runtime and process collectors")
	cmd.Flags().BoolVar(&f.systemMetrics, "system-metrics", false, "Sample process CPU and memory usage")
	cmd.Flags().StringVar(&f.systemInterval, "system-interval", "", "System sampling interval (defaults to --interval)")
	cmd.Flags().StringVar(&f.pidFile, "pid-file", DefaultPIDPath(), "Path to PID file (empty to disable)")
}

// runServeWithFlags is the main serve entry point, shared by the root
// command and the serve subcommand.
func runServeWithFlags(cmd *cobra.Command, f *serveFlags) error {
	if err := validateServeFlags(f); err != nil {
		return err
	}

	cfg, configPath, err := resolveServeConfig(cmd, f)
	if err != nil {
		return err
	}

	if err := checkPortConflict(cfg.Port); err != nil {
		return err
	}

	sctx := &serveContext{
		cfg:        cfg,
		configPath: configPath,
		pidFile:    f.pidFile,
	}

	setupLogging(sctx)

	if err := buildGenerator(sctx); err != nil {
		return err
	}
	if err := startGenerator(sctx); err != nil {
		return err
	}

	postStartup(sctx)

	return runMainLoop(sctx)
}

// validateServeFlags checks flag values before any setup work happens.
func validateServeFlags(f *serveFlags) error {
	if f.port < 0 || f.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", f.port)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"--interval", f.interval},
		{"--read-timeout", f.readTimeout},
		{"--write-timeout", f.writeTimeout},
		{"--system-interval", f.systemInterval},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s value %q: %w", d.name, d.value, err)
		}
	}

	return nil
}

// resolveServeConfig builds the effective configuration. Precedence,
// lowest to highest: defaults, config file, environment, flags.
func resolveServeConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, string, error) {
	cfg := config.Default()

	path := f.configFile
	if path == "" {
		path = config.ConfigFileFromEnv()
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
	}

	config.ApplyEnv(cfg)
	applyServeFlags(cmd, f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

// applyServeFlags overlays explicitly-set flags onto cfg.
func applyServeFlags(cmd *cobra.Command, f *serveFlags, cfg *config.Config) {
	set := func(flagName, sourceKey string, apply func()) {
		if cmd.Flags().Changed(flagName) {
			apply()
			cfg.Sources[sourceKey] = config.SourceFlag
		}
	}

	set("port", "port", func() { cfg.Port = f.port })
	set("interval", "interval", func() { cfg.Interval = f.interval })
	set("read-timeout", "readTimeout", func() { cfg.ReadTimeout = f.readTimeout })
	set("write-timeout", "writeTimeout", func() { cfg.WriteTimeout = f.writeTimeout })
	set("log-level", "logLevel", func() { cfg.Log.Level = f.logLevel })
	set("log-format", "logFormat", func() { cfg.Log.Format = f.logFormat })
	set("loki-endpoint", "lokiEndpoint", func() { cfg.Log.LokiEndpoint = f.lokiEndpoint })
	set("self-metrics", "selfMetrics", func() { cfg.SelfMetrics = f.selfMetrics })
	set("go-collectors", "goCollectors", func() { cfg.GoCollectors = f.goCollectors })
	set("system-metrics", "systemMetrics", func() { cfg.SystemMetrics = f.systemMetrics })
	set("system-interval", "systemInterval", func() { cfg.SystemInterval = f.systemInterval })
}

// checkPortConflict probes the exposition port before building anything
// so the common failure mode surfaces immediately with a useful message.
// Port 0 is skipped: the kernel picks a free port at bind time.
func checkPortConflict(port int) error {
	if port == 0 {
		return nil
	}
	if err := ports.Check(port); err != nil {
		return formatPortError(port, err)
	}
	return nil
}

// formatPortError formats a port availability error with suggestions.
func formatPortError(port int, err error) error {
	if err != nil {
		if isPermissionDeniedError(err) {
			return fmt.Errorf("could not bind port %d to check availability: %v", port, err)
		}
		if !isAddrInUseError(err) {
			return fmt.Errorf("failed to check port %d availability: %w", port, err)
		}
	}

	return fmt.Errorf(`port %d already in use

Suggestions:
  - Use a different port: metricsd serve --port %d
  - Check what's using the port: lsof -i :%d
  - Stop the other process and try again`, port, port+1, port)
}

// setupLogging builds the logger, fanning out to Loki when configured.
func setupLogging(sctx *serveContext) {
	cfg := sctx.cfg

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	if endpoint := cfg.Log.LokiEndpoint; endpoint != "" {
		loki := logging.NewLokiHandler(endpoint,
			logging.WithLokiLabels(map[string]string{
				"service": "metricsd",
				"port":    strconv.Itoa(cfg.Port),
			}),
			logging.WithLokiLevel(logging.ParseLevel(cfg.Log.Level)),
		)
		log = slog.New(logging.NewMultiHandler(log.Handler(), loki))
		sctx.lokiHandler = loki
		log.Info("log aggregation enabled", "endpoint", endpoint)
	}

	sctx.log = log
}

// buildGenerator constructs the registry, server and updater without
// starting anything.
func buildGenerator(sctx *serveContext) error {
	cfg := sctx.cfg

	reg := metrics.New()
	for _, cm := range cfg.CustomMetrics {
		def := metrics.Definition{
			Name: cm.Name,
			Help: cm.Help,
			Type: cm.Type,
			Expr: cm.Expr,
		}
		if cm.Range != nil {
			def.Min = cm.Range.Min
			def.Max = cm.Range.Max
		}
		if err := reg.RegisterCustom(def); err != nil {
			return fmt.Errorf("failed to register custom metric %s: %w", cm.Name, err)
		}
	}
	if cfg.GoCollectors {
		reg.EnableGoCollectors()
	}
	sctx.registry = reg

	if cfg.SystemMetrics {
		sampler, err := sysmetrics.NewCollector(reg.Registerer())
		if err != nil {
			return fmt.Errorf("failed to set up system metrics: %w", err)
		}
		sctx.sampler = sampler
	}

	sctx.server = server.New(cfg,
		server.WithRegistry(reg),
		server.WithLogger(sctx.log.With("component", "server")),
	)

	sctx.updater = metrics.NewUpdater(reg, cfg.IntervalDuration())
	sctx.updater.SetLogger(sctx.log.With("component", "updater"))

	sctx.log.Debug("generator configured",
		"port", cfg.Port,
		"interval", cfg.Interval,
		"customMetrics", len(cfg.CustomMetrics),
		"configSources", cfg.Sources,
	)

	return nil
}

// startGenerator brings up the exposition server, then the background
// updater. The server goes first so a bind failure aborts startup
// before any values start moving.
func startGenerator(sctx *serveContext) error {
	if err := sctx.server.Start(); err != nil {
		if isAddrInUseError(err) {
			return fmt.Errorf("port %d is already in use — try a different port with --port or check what's using it: lsof -i :%d", sctx.cfg.Port, sctx.cfg.Port)
		}
		return err
	}

	sctx.updater.Start()

	if sctx.sampler != nil {
		sctx.stopSampler = sctx.sampler.Start(sctx.cfg.SystemIntervalDuration())
	}

	return nil
}

// postStartup writes the PID file and prints the startup message.
func postStartup(sctx *serveContext) {
	if sctx.pidFile != "" {
		info := &PIDFile{
			PID:        os.Getpid(),
			StartTime:  time.Now(),
			Version:    Version,
			Commit:     Commit,
			Port:       sctx.server.Port(),
			Interval:   sctx.cfg.Interval,
			ConfigFile: sctx.configPath,
		}
		if err := WritePIDFile(sctx.pidFile, info); err != nil {
			output.Warn("failed to write PID file: %v", err)
		}
	}

	fmt.Printf("Serving metrics on :%d/metrics\n", sctx.server.Port())
}

// runMainLoop blocks until a shutdown signal arrives, then stops all
// components in order.
func runMainLoop(sctx *serveContext) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\nShutting down...")

	if sctx.pidFile != "" {
		if err := RemovePIDFile(sctx.pidFile); err != nil {
			output.Warn("failed to remove PID file: %v", err)
		}
	}

	// Stop producing new values before tearing down the exposition.
	sctx.updater.Stop()

	if sctx.stopSampler != nil {
		sctx.stopSampler()
	}

	if err := sctx.server.Stop(); err != nil {
		output.Warn("server shutdown error: %v", err)
	}

	// Flush buffered log entries last so shutdown logging ships too.
	if sctx.lokiHandler != nil {
		if err := sctx.lokiHandler.Close(); err != nil {
			output.Warn("log flush error: %v", err)
		}
	}

	fmt.Println("Generator stopped")
	return nil
}
