// Package errors provides the classified error primitives used by the pipeline
// engine, its processors and the command line front end.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, reference, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and presentation for the CLI
//
// Example usage:
//
//	err := errors.ConfigError("no such processor").
//		WithContext("processor", name).
//		Build()
//
// The engine never recovers from a classified error; it is propagated to the
// consumer of the pipe and, from there, to the CLI boundary.
package errors
