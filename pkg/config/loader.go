package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// Load reads a Config from a JSON or YAML file. The format is
// auto-detected from the file extension (.yaml, .yml for YAML,
// otherwise JSON). Keys absent from the file keep their default
// values, and the result is validated before being returned.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}

	return ParseJSON(data)
}

// Save writes a Config to a file using atomic rename. The format is
// determined by file extension (.yaml, .yml for YAML, otherwise JSON).
// Creates parent directories if they don't exist.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	if ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write to temporary file first (atomic write pattern)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// ParseYAML parses YAML bytes into a Config with validation. Keys
// absent from the document keep their default values.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	markFileSources(cfg, data, yaml.Unmarshal)
	return cfg, nil
}

// ParseJSON parses JSON bytes into a Config with validation. Keys
// absent from the document keep their default values.
func ParseJSON(data []byte) (*Config, error) {
	cfg := Default()

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	markFileSources(cfg, data, json.Unmarshal)
	return cfg, nil
}

// markFileSources records which top-level keys the file actually set.
func markFileSources(cfg *Config, data []byte, unmarshal func([]byte, any) error) {
	var raw map[string]any
	if err := unmarshal(data, &raw); err != nil {
		return
	}

	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	for _, key := range []string{"port", "interval", "readTimeout", "writeTimeout"} {
		if _, ok := raw[key]; ok {
			cfg.Sources[key] = SourceFile
		}
	}
	if logRaw, ok := raw["log"].(map[string]any); ok {
		if _, ok := logRaw["level"]; ok {
			cfg.Sources["logLevel"] = SourceFile
		}
		if _, ok := logRaw["format"]; ok {
			cfg.Sources["logFormat"] = SourceFile
		}
		if _, ok := logRaw["lokiEndpoint"]; ok {
			cfg.Sources["lokiEndpoint"] = SourceFile
		}
	}
	for _, key := range []string{"selfMetrics", "goCollectors", "systemMetrics", "systemInterval", "customMetrics"} {
		if _, ok := raw[key]; ok {
			cfg.Sources[key] = SourceFile
		}
	}
}
