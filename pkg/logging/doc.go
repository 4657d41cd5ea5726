// Package logging provides structured logging configuration for metricsd.
//
// This package wraps log/slog so every component logs the same way. It
// supports configurable levels, text or JSON output, and an optional
// Loki push handler for log aggregation.
//
// # Usage
//
// Create a logger with the desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("exposition server started", "port", 8080)
//
// Log output goes to stderr by default; stdout is reserved for command
// output and the startup confirmation line.
//
// # Integration
//
// Components accept a *slog.Logger in their constructor or via an
// option. If no logger is provided, use logging.Nop() for a no-op
// logger.
package logging
