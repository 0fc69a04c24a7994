// Package logging provides structured logging utilities for the toolbox.
//
// # Overview
//
// This package wraps the standard library slog package with toolbox defaults so
// every runner and command logs with the same shape. It supports environment-based
// log level configuration, module/version context injection, and source location
// tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages
//   - ERROR: Error messages
//
// # Usage
//
// The CLI installs the default logger once flags are parsed:
//
//	logging.SetDefaultStructuredLoggerWithLevel("toolbox", version, "debug")
//	slog.Info("running playbook", "name", inv.Name())
//
// Text output for interactive terminals:
//
//	logging.SetDefaultTextLoggerWithLevel("toolbox", version, "info")
//
// # Environment Configuration
//
// When no level is given, LOG_LEVEL is consulted:
//
//	LOG_LEVEL=debug toolbox ocm-addon remove ...
//
// # Output Format
//
// JSON logs are written to stderr so stdout stays free for command output:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "running playbook",
//	    "module": "toolbox",
//	    "version": "v1.0.0",
//	    "name": "addon_install"
//	}
package logging
