// Package logging provides a structured logging system for proctor with
// unified log handling and level filtering.
//
// This package implements a logging system built on Go's standard slog
// package. Diagnostic output from the pipeline stages routes through here;
// user-facing progress lines and reports are written directly by the display
// and report packages and never pass through the logger.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// # Usage
//
//	import "proctor/pkg/logging"
//
//	// Initialize with Info level logging to stderr
//	logging.Init(logging.LevelInfo, os.Stderr)
//
//	// Log messages
//	logging.Info("Discovery", "loaded %d suites", len(suites))
//	logging.Debug("Scheduler", "worker %d picked up %s", id, name)
//	logging.Error("Report", err, "failed to write results")
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **Discovery**: Manifest walking and suite loading
//   - **Selection**: Filtering, sharding, and ordering
//   - **Scheduler**: Worker pool dispatch and completion
//   - **Runner**: Individual test command execution
//   - **Report**: Result aggregation and report writing
//
// # Thread Safety
//
// The logging system is fully thread-safe: safe concurrent logging from
// multiple goroutines with no data races in configuration.
package logging
