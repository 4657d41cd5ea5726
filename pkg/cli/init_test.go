package cli

import (
	"strings"
	"testing"

	"github.com/getmockd/metricsd/pkg/config"
)

func TestRenderInitConfig_YAML(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 9100

	data, err := renderInitConfig(cfg, "yaml")
	if err != nil {
		t.Fatalf("renderInitConfig failed: %v", err)
	}

	out := string(data)
	if !strings.HasPrefix(out, "# metricsd.yaml") {
		t.Errorf("expected header comment, got:\n%s", out)
	}
	if !strings.Contains(out, "port: 9100") {
		t.Errorf("expected port in output, got:\n%s", out)
	}
	if strings.Contains(out, "sources") {
		t.Errorf("resolution metadata must not serialize, got:\n%s", out)
	}

	// The generated file must load and validate cleanly.
	parsed, err := config.ParseYAML(data)
	if err != nil {
		t.Fatalf("generated YAML does not parse: %v", err)
	}
	if parsed.Port != 9100 {
		t.Errorf("round-trip port = %d, want 9100", parsed.Port)
	}
}

func TestRenderInitConfig_JSON(t *testing.T) {
	cfg := config.Default()

	data, err := renderInitConfig(cfg, "json")
	if err != nil {
		t.Fatalf("renderInitConfig failed: %v", err)
	}

	parsed, err := config.ParseJSON(data)
	if err != nil {
		t.Fatalf("generated JSON does not parse: %v", err)
	}
	if parsed.Port != config.DefaultPort {
		t.Errorf("round-trip port = %d, want %d", parsed.Port, config.DefaultPort)
	}
	if parsed.Interval != config.DefaultInterval {
		t.Errorf("round-trip interval = %s, want %s", parsed.Interval, config.DefaultInterval)
	}
}
