package promquery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInstantVector(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [{"value": [1712345678.123, "42.5"]}]
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	v, err := c.InstantVector(context.Background(), "room_temperature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42.5 {
		t.Errorf("expected 42.5, got %f", v)
	}
	if gotQuery != "room_temperature" {
		t.Errorf("expected query to be passed through, got %q", gotQuery)
	}
}

func TestInstantVectorNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "success", "data": {"resultType": "vector", "result": []}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.InstantVector(context.Background(), "missing_metric")
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}

func TestInstantVectorQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "data": {}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.InstantVector(context.Background(), "bad{query")
	if err == nil {
		t.Error("expected error for non-success status")
	}
}

func TestInstantVectorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.InstantVector(context.Background(), "up")
	if err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestInstantVectorBadSampleValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {"resultType": "vector", "result": [{"value": [0, "not-a-number"]}]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.InstantVector(context.Background(), "up")
	if err == nil {
		t.Error("expected parse error for non-numeric sample")
	}
}

func TestInstantVectorTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": "success", "data": {"result": [{"value": [0, "1"]}]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	v, err := c.InstantVector(context.Background(), "up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Errorf("expected 1, got %f", v)
	}
}
