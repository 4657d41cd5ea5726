package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/metricsd/internal/promquery"
	"github.com/spf13/cobra"
)

var queryPrometheusURL string

var queryCmd = &cobra.Command{
	Use:   "query <promql>",
	Short: "Run an instant PromQL query against a Prometheus server",
	Long: `Run an instant PromQL query against a Prometheus server.

Useful for verifying that Prometheus is actually ingesting the
generator's metrics after wiring up a scrape config. Prints the value
of the first sample in the result vector.`,
	Example: `  # Current value of the request counter
  metricsd query request_count

  # Scrape rate over five minutes
  metricsd query 'rate(request_count[5m])'

  # Query a remote Prometheus
  metricsd query room_temperature --prometheus-url http://prom.internal:9090`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryPrometheusURL, "prometheus-url", "http://localhost:9090", "Prometheus base URL")
}

func runQuery(cmd *cobra.Command, args []string) error {
	expr := args[0]
	client := promquery.NewClient(queryPrometheusURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	value, err := client.InstantVector(ctx, expr)
	if err != nil {
		if errors.Is(err, promquery.ErrNoResult) {
			return fmt.Errorf("no samples for query %q - is Prometheus scraping the generator?", expr)
		}
		return err
	}

	printResult(map[string]any{"query": expr, "value": value}, func() {
		fmt.Printf("%g\n", value)
	})
	return nil
}
