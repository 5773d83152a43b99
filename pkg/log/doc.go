// Package log provides structured protocol logging for CI-V sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol events at three layers: the serial transport (raw frames), the
// transaction engine (decoded commands and replies) and the rig API (cache and
// lifecycle changes). It is separate from operational logging (slog); protocol
// capture provides a complete machine-readable trace of the bus.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For long captures: write to binary file
//	opts.ProtocolLogger, _ = log.NewFileLogger("/var/log/civ/icr8500.clog")
//
//	// Both
//	opts.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: raw frame bytes (FrameEvent)
//   - Frame: decoded commands, replies and transceive broadcasts (CommandEvent)
//   - Rig: port, transaction and cache state changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .clog extension.
// The civ-log tool views, filters and exports them.
package log
