/*
Package log provides structured logging for faceit using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information (acquire conflicts, retries)
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithRequestID: Add authentication request ID context
  - WithPod: Add worker pod name context

# Usage

Initializing the Logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Structured Logging:

	log.Logger.Info().
		Str("pod", "faceit-worker-abc12").
		Int("attempt", 2).
		Msg("Acquired worker pod")

	log.Logger.Error().
		Err(err).
		Str("request_id", reqID).
		Msg("Dispatch to worker failed")

Component Loggers:

	poolLog := log.WithComponent("pool")
	poolLog.Debug().Str("pod", name).Msg("Conditional patch conflict, re-listing")

# Integration Points

This package integrates with:

  - pkg/pool: Logs acquire attempts, conflicts, and compensation
  - pkg/auth: Logs the per-request state machine transitions
  - pkg/podstore: Logs Kubernetes API failures
  - pkg/worker: Logs embedding and matching activity
  - pkg/api: Logs HTTP requests and errors

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data (.Str, .Int, .Err)
  - Create component-specific loggers
  - Include context (request ID, pod name)

Don't:
  - Log biometric payloads or embeddings (sensitive data)
  - Use Debug level in production
  - Concatenate strings into messages
*/
package log
