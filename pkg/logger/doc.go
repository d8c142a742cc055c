// Package logger provides structured logging for the routing control plane.
//
// Every component (LockedStateFile, QuotaTracker, WorkCoordinator,
// RoutingCore, the probabilistic router, the adaptive orchestrator, the
// temporal scheduler, the metrics sink) takes a Logger by dependency
// injection rather than reaching for a package-level global, so tests can
// supply a silent or recording implementation.
//
// # Logger Interface
//
//	type Logger interface {
//	    Debug(msg string, fields ...interface{})
//	    Info(msg string, fields ...interface{})
//	    Warn(msg string, fields ...interface{})
//	    Error(msg string, fields ...interface{})
//	    SetLevel(level string)
//	    With(fields ...Field) Logger
//	    WithField(key string, value interface{}) Logger
//	    WithFields(fields map[string]interface{}) Logger
//	}
//
// # Log Levels
//
// Supported levels in order of severity: DEBUG, INFO, WARN, ERROR.
//
// # Structured Logging
//
//	log.Info("lock acquired", "path", path)
//
// # Contextual Logging
//
// With returns a child logger carrying extra fields on every subsequent
// call, e.g. a per-run logger inside OvernightExecutor:
//
//	runLogger := log.With(logger.Field{Key: "run_id", Value: runID})
//	runLogger.Info("starting overnight run")
//
// # Configuration
//
//   - LOG_LEVEL: minimum level (debug, info, warn, error)
//   - LOG_FORMAT: output format (json, text)
package logger
