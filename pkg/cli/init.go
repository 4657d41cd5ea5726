package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/getmockd/metricsd/pkg/cli/internal/ports"
	"github.com/getmockd/metricsd/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	initOutput   string
	initForce    bool
	initFormat   string
	initDefaults bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter metricsd configuration file",
	Long: `Create a starter metricsd configuration file.

By default an interactive prompt asks for the port, the update interval
and optional extras. Use --defaults to skip the prompts and write the
stock configuration.`,
	Example: `  # Interactive setup
  metricsd init

  # Write metricsd.yaml with stock settings
  metricsd init --defaults

  # JSON output with a custom filename
  metricsd init -o generator.json

  # Overwrite an existing config
  metricsd init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "metricsd.yaml", "Output filename")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
	initCmd.Flags().StringVar(&initFormat, "format", "", "Output format: yaml or json (default: inferred from filename)")
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "Skip prompts and write the stock configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	outputFormat := strings.ToLower(initFormat)
	if outputFormat == "" {
		if strings.ToLower(filepath.Ext(initOutput)) == ".json" {
			outputFormat = "json"
		} else {
			outputFormat = "yaml"
		}
	}
	if outputFormat != "yaml" && outputFormat != "json" {
		return fmt.Errorf("invalid format: %s (must be yaml or json)", outputFormat)
	}

	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", initOutput)
	}

	cfg := config.Default()
	if !initDefaults {
		if err := runInitForm(cfg); err != nil {
			return err
		}
	}

	data, err := renderInitConfig(cfg, outputFormat)
	if err != nil {
		return err
	}

	if err := os.WriteFile(initOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Created %s\n", initOutput)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  metricsd serve --config %s\n", initOutput)
	fmt.Printf("  curl http://localhost:%d/metrics\n", cfg.Port)
	return nil
}

// runInitForm prompts for the basic generator settings.
func runInitForm(cfg *config.Config) error {
	portStr := strconv.Itoa(cfg.Port)
	interval := cfg.Interval
	var extras []string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Which port should the exposition server listen on?").
				Placeholder("8080").
				Value(&portStr).
				Validate(func(s string) error {
					p, err := strconv.Atoi(s)
					if err != nil {
						return errors.New("port must be a number")
					}
					if p < 1 || p > 65535 {
						return errors.New("port must be between 1 and 65535")
					}
					if !ports.IsAvailable(p) {
						return fmt.Errorf("port %d is already in use", p)
					}
					return nil
				}),
			huh.NewInput().
				Title("How often should metric values update?").
				Placeholder("2s").
				Value(&interval).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return errors.New("must be a Go duration, e.g. 2s or 500ms")
					}
					if d <= 0 {
						return errors.New("interval must be positive")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Optional extras").
				Options(
					huh.NewOption("Scrape counters for /metrics itself", "selfMetrics"),
					huh.NewOption("Go runtime and process collectors", "goCollectors"),
					huh.NewOption("Process CPU/memory sampling", "systemMetrics"),
				).
				Value(&extras),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Port, _ = strconv.Atoi(portStr)
	cfg.Interval = interval
	for _, extra := range extras {
		switch extra {
		case "selfMetrics":
			cfg.SelfMetrics = true
		case "goCollectors":
			cfg.GoCollectors = true
		case "systemMetrics":
			cfg.SystemMetrics = true
		}
	}
	return nil
}

// renderInitConfig renders cfg in the requested format, with a header
// comment block for YAML output.
func renderInitConfig(cfg *config.Config, format string) ([]byte, error) {
	if format == "json" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to generate JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate YAML: %w", err)
	}

	header := fmt.Sprintf(`# metricsd.yaml
# Generated by: metricsd init
#
# Start generator: metricsd serve --config %s
# Scrape endpoint: curl http://localhost:%d/metrics
#
# Additional synthetic metrics can be declared under customMetrics:
#
#   customMetrics:
#     - name: disk_usage_simulated
#       type: gauge
#       range: { min: 0, max: 100 }
#     - name: batch_jobs_done
#       type: counter
#       expr: randRange(0, 3)

`, initOutput, cfg.Port)
	return append([]byte(header), yamlData...), nil
}
