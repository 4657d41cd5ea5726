package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// jsonOutput toggles machine-readable output for commands that support it.
var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "metricsd",
	Short: "A toy Prometheus metrics generator",
	Long: `metricsd publishes a small set of synthetic metrics in the Prometheus text
exposition format and updates them in the background on a fixed interval.

Running metricsd without a subcommand starts the generator in the
foreground, equivalent to "metricsd serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(cmd, &serveFlagVals)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")

	// The bare "metricsd" invocation takes the same flags as serve.
	registerServeFlags(rootCmd)
}
