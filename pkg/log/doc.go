/*
Package log provides structured logging for tracewire using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Usage

Initialize once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
	})

Component loggers carry a fixed field:

	logger := log.WithComponent("manager")
	logger.Info().Str("cable_id", cable.ID).Msg("cable created")

Child helpers exist for the fields that recur across the codebase:
WithCableID, WithOrigin, WithDeviceID.
*/
package log
