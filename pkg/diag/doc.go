// Package diag provides structured diagnostics for compiler runs.
//
// This package defines the Logger interface and the Event type for
// capturing what a generation run did: stage completions with element
// counts, warnings about description constructs that deserve a second
// look, and fatal errors. It is separate from terminal output - the
// event log is a machine-readable record of a run, not a UI.
//
// # Basic Usage
//
// Tools configure logging by providing a Logger implementation:
//
//	// For development: mirror events to the console via slog
//	logger := diag.NewSlogAdapter(slog.Default())
//
//	// For records: append to a binary file
//	logger, _ := diag.NewFileLogger("gen.dlog")
//
//	// Both at once
//	logger := diag.NewMultiLogger(
//	    diag.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Events
//
// Every event carries the run ID (one UUID per invocation), the
// pipeline stage that produced it (parse, build, validate, plan, emit),
// a severity, and for element-scoped events the description path
// involved.
//
// # File Format
//
// Log files are a plain sequence of CBOR-encoded events; Reader streams
// them back, optionally filtered.
package diag
