// Package logging provides structured logging for the formbd tooling.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the command-line tool. The
// formbd library itself logs through the small formbd.Logger interface,
// which *Logger satisfies.
//
// # Features
//
//   - JSON output for machine consumption
//   - Text output for plain terminals and log files
//   - Pretty output (colourised, compact timestamps) for interactive use
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in formbd.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json, pretty
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("database opened", "path", dbPath)
//	logger.Error("apply failed", "error", err)
package logging
