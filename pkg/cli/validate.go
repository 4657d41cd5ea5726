package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/getmockd/metricsd/pkg/config"
	"github.com/spf13/cobra"
)

var validateConfigFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file without starting the generator",
	Long: `Validate a configuration file without starting the generator.

This command checks:
  - YAML/JSON syntax
  - Value constraints (port range, parseable durations)
  - Custom metric declarations (names, types, value sources)

If no file is given, METRICSD_CONFIG and then metricsd.yaml/.yml/.json
in the current directory are tried.`,
	Example: `  # Validate config discovered in the current directory
  metricsd validate

  # Validate a specific config file
  metricsd validate --config metricsd.yaml

  # Machine-readable result
  metricsd validate -c metricsd.yaml --json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "", "Path to configuration file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := validateConfigFile
	if path == "" {
		path = discoverConfigFile()
	}
	if path == "" {
		return errors.New("no config file found - pass one with --config or create metricsd.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		printResult(map[string]any{"file": path, "valid": false, "error": err.Error()}, func() {
			fmt.Printf("✗ %s is invalid\n", path)
			fmt.Printf("  %v\n", err)
		})
		return fmt.Errorf("validation failed: %s", path)
	}

	printResult(map[string]any{
		"file":          path,
		"valid":         true,
		"port":          cfg.Port,
		"interval":      cfg.Interval,
		"customMetrics": len(cfg.CustomMetrics),
	}, func() {
		fmt.Printf("✓ %s is valid\n", path)
		fmt.Println()
		fmt.Printf("  Port:            %d\n", cfg.Port)
		fmt.Printf("  Update interval: %s\n", cfg.Interval)
		fmt.Printf("  Custom metrics:  %d\n", len(cfg.CustomMetrics))
	})
	return nil
}

// discoverConfigFile looks for a config file via the environment and
// then common filenames in the current directory.
func discoverConfigFile() string {
	if path := config.ConfigFileFromEnv(); path != "" {
		return path
	}
	for _, name := range []string{"metricsd.yaml", "metricsd.yml", "metricsd.json"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
