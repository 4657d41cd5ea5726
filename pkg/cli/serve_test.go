package cli

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getmockd/metricsd/pkg/config"
	"github.com/spf13/cobra"
)

// newServeTestCommand builds a throwaway command carrying the serve
// flag set. Registering resets the shared flag values to their
// defaults, so each test starts clean.
func newServeTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "serve-test", RunE: func(*cobra.Command, []string) error { return nil }}
	registerServeFlags(cmd)
	return cmd
}

func TestValidateServeFlags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*serveFlags)
		wantErr bool
	}{
		{"defaults", func(*serveFlags) {}, false},
		{"negative port", func(f *serveFlags) { f.port = -1 }, true},
		{"port too large", func(f *serveFlags) { f.port = 70000 }, true},
		{"port zero ok", func(f *serveFlags) { f.port = 0 }, false},
		{"bad interval", func(f *serveFlags) { f.interval = "soon" }, true},
		{"bad read timeout", func(f *serveFlags) { f.readTimeout = "10 minutes" }, true},
		{"empty system interval ok", func(f *serveFlags) { f.systemInterval = "" }, false},
		{"good system interval", func(f *serveFlags) { f.systemInterval = "250ms" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := serveFlags{
				port:         config.DefaultPort,
				interval:     config.DefaultInterval,
				readTimeout:  config.DefaultReadTimeout,
				writeTimeout: config.DefaultWriteTimeout,
			}
			tt.mutate(&f)

			err := validateServeFlags(&f)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestResolveServeConfig_Defaults(t *testing.T) {
	cmd := newServeTestCommand()

	cfg, path, err := resolveServeConfig(cmd, &serveFlagVals)
	if err != nil {
		t.Fatalf("resolveServeConfig failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config path, got %q", path)
	}
	if cfg.Port != config.DefaultPort {
		t.Errorf("expected default port %d, got %d", config.DefaultPort, cfg.Port)
	}
	if cfg.Interval != config.DefaultInterval {
		t.Errorf("expected default interval %s, got %s", config.DefaultInterval, cfg.Interval)
	}
	if cfg.Sources["port"] != config.SourceDefault {
		t.Errorf("expected port source %q, got %q", config.SourceDefault, cfg.Sources["port"])
	}
}

func TestResolveServeConfig_Precedence(t *testing.T) {
	// File sets port and interval, env overrides interval, flag
	// overrides port. Expected: port from flag, interval from env.
	dir := t.TempDir()
	path := filepath.Join(dir, "metricsd.yaml")
	content := "port: 7001\ninterval: 7s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("METRICSD_INTERVAL", "9s")

	cmd := newServeTestCommand()
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}
	if err := cmd.Flags().Set("port", "7003"); err != nil {
		t.Fatalf("failed to set port flag: %v", err)
	}

	cfg, gotPath, err := resolveServeConfig(cmd, &serveFlagVals)
	if err != nil {
		t.Fatalf("resolveServeConfig failed: %v", err)
	}

	if gotPath != path {
		t.Errorf("expected config path %q, got %q", path, gotPath)
	}
	if cfg.Port != 7003 {
		t.Errorf("expected flag port 7003, got %d", cfg.Port)
	}
	if cfg.Interval != "9s" {
		t.Errorf("expected env interval 9s, got %s", cfg.Interval)
	}
	if cfg.Sources["port"] != config.SourceFlag {
		t.Errorf("expected port source flag, got %q", cfg.Sources["port"])
	}
	if cfg.Sources["interval"] != config.SourceEnv {
		t.Errorf("expected interval source env, got %q", cfg.Sources["interval"])
	}
}

func TestResolveServeConfig_ConfigFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	if err := os.WriteFile(path, []byte("port: 7010\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("METRICSD_CONFIG", path)

	cmd := newServeTestCommand()
	cfg, gotPath, err := resolveServeConfig(cmd, &serveFlagVals)
	if err != nil {
		t.Fatalf("resolveServeConfig failed: %v", err)
	}
	if gotPath != path {
		t.Errorf("expected config path %q, got %q", path, gotPath)
	}
	if cfg.Port != 7010 {
		t.Errorf("expected port 7010 from env-referenced file, got %d", cfg.Port)
	}
}

func TestResolveServeConfig_MissingFile(t *testing.T) {
	cmd := newServeTestCommand()
	if err := cmd.Flags().Set("config", "/nonexistent/metricsd.yaml"); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	_, _, err := resolveServeConfig(cmd, &serveFlagVals)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveServeConfig_InvalidFlagCombination(t *testing.T) {
	cmd := newServeTestCommand()
	if err := cmd.Flags().Set("interval", "0s"); err != nil {
		t.Fatalf("failed to set interval flag: %v", err)
	}

	_, _, err := resolveServeConfig(cmd, &serveFlagVals)
	if err == nil {
		t.Fatal("expected validation error for zero interval")
	}
}

func TestCheckPortConflict(t *testing.T) {
	t.Run("port zero skipped", func(t *testing.T) {
		if err := checkPortConflict(0); err != nil {
			t.Errorf("expected port 0 to skip the probe, got %v", err)
		}
	})

	t.Run("occupied port", func(t *testing.T) {
		ln, err := net.Listen("tcp", ":0")
		if err != nil {
			t.Fatalf("failed to occupy port: %v", err)
		}
		defer ln.Close()
		port := ln.Addr().(*net.TCPAddr).Port

		err = checkPortConflict(port)
		if err == nil {
			t.Fatalf("expected conflict error for port %d", port)
		}
		if !strings.Contains(err.Error(), "already in use") {
			t.Errorf("expected friendly conflict message, got: %v", err)
		}
		if !strings.Contains(err.Error(), "lsof") {
			t.Errorf("expected lsof suggestion, got: %v", err)
		}
	})
}

func TestBuildGenerator_CustomMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.CustomMetrics = []config.CustomMetric{
		{Name: "disk_usage_simulated", Type: "gauge", Range: &config.RangeSpec{Min: 0, Max: 100}},
		{Name: "batch_jobs_done", Type: "counter", Expr: "randRange(0, 3)"},
	}

	sctx := &serveContext{cfg: cfg}
	setupLogging(sctx)

	if err := buildGenerator(sctx); err != nil {
		t.Fatalf("buildGenerator failed: %v", err)
	}
	if sctx.registry == nil || sctx.server == nil || sctx.updater == nil {
		t.Fatal("expected registry, server and updater to be built")
	}

	// Custom metrics must show up in the exposition after a tick.
	sctx.registry.Tick()
	snap := sctx.registry.Snapshot()
	if _, ok := snap.Custom["disk_usage_simulated"]; !ok {
		t.Error("expected disk_usage_simulated in snapshot")
	}
	if _, ok := snap.Custom["batch_jobs_done"]; !ok {
		t.Error("expected batch_jobs_done in snapshot")
	}
}

func TestBuildGenerator_RejectsReservedCustomName(t *testing.T) {
	cfg := config.Default()
	cfg.CustomMetrics = []config.CustomMetric{
		{Name: "request_count", Type: "counter", Expr: "1"},
	}

	sctx := &serveContext{cfg: cfg}
	setupLogging(sctx)

	if err := buildGenerator(sctx); err == nil {
		t.Fatal("expected error for reserved custom metric name")
	}
}
