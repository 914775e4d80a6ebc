// Package errors provides the classified error type used for run-level failures in catalogbuilder.
//
// Per-module failures travel through the engine as module.ErrorRecord values. Anything that stops
// a command (bad configuration, unreachable catalog API, unwritable output directory) is a
// ClassifiedError built with the fluent ErrorBuilder and mapped to an exit code by CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryCatalogAPI, "location registration failed").
//		WithCause(cause).
//		WithContext("target", target).
//		Retryable().
//		Build()
package errors
