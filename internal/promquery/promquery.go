// Package promquery provides a minimal Prometheus HTTP API client for
// instant queries.
package promquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoResult is returned when a query succeeds but matches no series.
var ErrNoResult = errors.New("query returned no samples")

// Client talks to a Prometheus server's query API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given Prometheus base URL
// (e.g. "http://localhost:9090").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type apiResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Value []interface{} `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// InstantVector runs an instant query and returns the value of the
// first sample. Returns ErrNoResult when the query matches nothing.
func (c *Client) InstantVector(ctx context.Context, query string) (float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid prometheus url: %w", err)
	}
	u.Path = "/api/v1/query"
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prometheus returned status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Status != "success" {
		return 0, fmt.Errorf("query failed with status %q", out.Status)
	}
	if len(out.Data.Result) == 0 || len(out.Data.Result[0].Value) < 2 {
		return 0, ErrNoResult
	}

	// value is [timestamp, "numeric string"]
	s, ok := out.Data.Result[0].Value[1].(string)
	if !ok {
		return 0, errors.New("unexpected result format")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sample value: %w", err)
	}
	return v, nil
}
