package cli

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/metricsd/pkg/config"
	"github.com/getmockd/metricsd/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	checkURL     string
	checkPIDFile string
	checkTimeout time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scrape a running generator and verify its exposition",
	Long: `Scrape a running generator and verify its exposition.

The target is discovered from the PID file of a locally running
generator, falling back to the default port. Checks cover endpoint
reachability, the exposition content type, and the presence and
plausibility of the built-in metrics.`,
	Example: `  # Check the local generator
  metricsd check

  # Check a specific endpoint
  metricsd check --url http://localhost:9090/metrics

  # Machine-readable result
  metricsd check --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkURL, "url", "", "Exposition URL (default: discovered via the PID file)")
	checkCmd.Flags().StringVar(&checkPIDFile, "pid-file", DefaultPIDPath(), "PID file used to discover a running generator")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Second, "Scrape timeout")
}

// expositionCheck holds the result of a single check.
type expositionCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "fail", "info"
	Detail string `json:"detail"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := checkURL
	if target == "" {
		target = discoverMetricsURL(checkPIDFile)
	}

	var checks []expositionCheck
	allPassed := true
	pass := func(name, detail string) {
		checks = append(checks, expositionCheck{Name: name, Status: "ok", Detail: detail})
	}
	fail := func(name, detail string) {
		checks = append(checks, expositionCheck{Name: name, Status: "fail", Detail: detail})
		allPassed = false
	}

	body, contentType, err := scrapeExposition(target, checkTimeout)
	if err != nil {
		fail("endpoint", err.Error())
		printCheckResult(target, checks, false)
		return fmt.Errorf("generator at %s is not reachable", target)
	}
	pass("endpoint", target)

	if strings.Contains(contentType, "version=0.0.4") {
		pass("content_type", contentType)
	} else {
		fail("content_type", fmt.Sprintf("unexpected content type %q", contentType))
	}

	var missingTypes []string
	for name, kind := range map[string]string{
		metrics.NameRequestCount:       "counter",
		metrics.NameRAMTestMetricCount: "counter",
		metrics.NameRoomTemperature:    "gauge",
	} {
		if !strings.Contains(body, fmt.Sprintf("# TYPE %s %s", name, kind)) {
			missingTypes = append(missingTypes, name)
		}
	}
	if len(missingTypes) == 0 {
		pass("type_lines", "all built-in metrics declare their type")
	} else {
		fail("type_lines", "missing TYPE for "+strings.Join(missingTypes, ", "))
	}

	samples := parseExposition(strings.NewReader(body))

	requests, hasRequests := samples[metrics.NameRequestCount]
	ramCount, hasRAMCount := samples[metrics.NameRAMTestMetricCount]
	checkCounter(metrics.NameRequestCount, requests, hasRequests, pass, fail)
	checkCounter(metrics.NameRAMTestMetricCount, ramCount, hasRAMCount, pass, fail)

	if hasRequests && hasRAMCount {
		// Both counters advance on the same tick; a scrape can land
		// between the two increments, so allow a delta of one.
		if math.Abs(requests-ramCount) <= 1 {
			pass("counters_in_step", fmt.Sprintf("%.0f and %.0f", requests, ramCount))
		} else {
			fail("counters_in_step", fmt.Sprintf("counters diverged: %.0f vs %.0f", requests, ramCount))
		}
	}

	if temp, ok := samples[metrics.NameRoomTemperature]; !ok {
		fail(metrics.NameRoomTemperature, "missing from exposition")
	} else if temp == 0 || (temp >= metrics.TempMin && temp < metrics.TempMax) {
		pass(metrics.NameRoomTemperature, strconv.FormatFloat(temp, 'f', 2, 64))
	} else {
		fail(metrics.NameRoomTemperature, fmt.Sprintf("value %g outside [%g, %g)", temp, metrics.TempMin, metrics.TempMax))
	}

	printCheckResult(target, checks, allPassed)

	if !allPassed {
		return fmt.Errorf("generator at %s failed checks", target)
	}
	return nil
}

func checkCounter(name string, value float64, present bool, pass, fail func(name, detail string)) {
	switch {
	case !present:
		fail(name, "missing from exposition")
	case value < 0:
		fail(name, fmt.Sprintf("negative value %g", value))
	case value != math.Trunc(value):
		fail(name, fmt.Sprintf("non-integer value %g", value))
	default:
		pass(name, strconv.FormatFloat(value, 'f', 0, 64))
	}
}

// discoverMetricsURL finds the exposition URL of a locally running
// generator via its PID file, falling back to the default port.
func discoverMetricsURL(pidPath string) string {
	if info, err := ReadPIDFile(pidPath); err == nil && info.IsRunning() {
		if url := info.MetricsURL(); url != "" {
			return url
		}
	}
	return fmt.Sprintf("http://localhost:%d/metrics", config.DefaultPort)
}

func scrapeExposition(url string, timeout time.Duration) (body, contentType string, err error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(data), resp.Header.Get("Content-Type"), nil
}

// parseExposition extracts sample values from the Prometheus text
// format. Only unlabeled samples are collected, which covers everything
// the generator publishes itself; labeled series from the optional Go
// collectors are skipped.
func parseExposition(r io.Reader) map[string]float64 {
	samples := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.ContainsRune(fields[0], '{') {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		if _, seen := samples[fields[0]]; !seen {
			samples[fields[0]] = value
		}
	}
	return samples
}

func printCheckResult(target string, checks []expositionCheck, allPassed bool) {
	printResult(map[string]any{"url": target, "checks": checks, "allPassed": allPassed}, func() {
		fmt.Println("metricsd check")
		fmt.Println("==============")
		fmt.Printf("Target: %s\n", target)
		fmt.Println()
		for _, c := range checks {
			switch c.Status {
			case "ok":
				fmt.Printf("  ✓ %s: %s\n", c.Name, c.Detail)
			case "fail":
				fmt.Printf("  ✗ %s: %s\n", c.Name, c.Detail)
			default:
				fmt.Printf("  • %s: %s\n", c.Name, c.Detail)
			}
		}
		fmt.Println()
		if allPassed {
			fmt.Println("All checks passed!")
		} else {
			fmt.Println("Some checks failed. See above for details.")
		}
	})
}
