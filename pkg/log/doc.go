/*
Package log provides structured logging for Vigil using zerolog.

The log package wraps zerolog behind a global logger initialized once by the
CLI, with component-specific child loggers and a configurable level and
format. Console output is the default because the primary consumer is an
operator watching the device over a serial console; JSON output is available
for deployments that ship logs off the device.

Usage:

	log.Init(log.Config{Level: log.InfoLevel})
	logger := log.WithComponent("supervisor")
	logger.Warn().Str("record", name).Msg("fault intercepted")
*/
package log
