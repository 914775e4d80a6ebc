package module

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
)

// ErrorKind classifies a per-module failure.
type ErrorKind string

const (
	// ErrorLoad: the descriptor could not be read or parsed.
	ErrorLoad ErrorKind = "load"
	// ErrorStructural: a required field is missing or malformed.
	ErrorStructural ErrorKind = "structural"
	// ErrorResolution: an ancestor could not be resolved, including cyclic parent chains.
	ErrorResolution ErrorKind = "resolution"
	// ErrorTemplate: no usable template, or a placeholder without a value.
	ErrorTemplate ErrorKind = "template"
	// ErrorNaming: an aggregator root has no usable name.
	ErrorNaming ErrorKind = "naming"
	// ErrorInternal: an unexpected fault recovered while processing a module.
	ErrorInternal ErrorKind = "internal"
)

// ErrorRecord replaces a record or document whose processing failed.
// It travels through later stages untouched and ends up in the run report.
type ErrorRecord struct {
	Context    string
	PathOffset string
	Kind       ErrorKind
	Err        error
}

// Error implements the error interface.
func (e *ErrorRecord) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap exposes the cause.
func (e *ErrorRecord) Unwrap() error {
	return e.Err
}

// KindError attaches an ErrorKind to a cause. Loaders use it to say what kind of
// failure they hit; Wrap picks the kind up.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string { return e.Err.Error() }
func (e *KindError) Unwrap() error { return e.Err }

// Structural returns a structural failure with a formatted message.
func Structural(format string, args ...any) error {
	return &KindError{Kind: ErrorStructural, Err: fmt.Errorf(format, args...)}
}

// WithKind tags err with kind unless it is nil.
func WithKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// Wrap returns the error conversion used with foundation.Try and
// foundation.AndThen. Existing ErrorRecords pass through unchanged so that the
// first failure of a module is the one reported.
func Wrap(context, pathOffset string, kind ErrorKind) func(error) *ErrorRecord {
	return func(err error) *ErrorRecord {
		var existing *ErrorRecord
		if errors.As(err, &existing) {
			return existing
		}
		k := kind
		var tagged *KindError
		if errors.As(err, &tagged) {
			k = tagged.Kind
		}
		return &ErrorRecord{Context: context, PathOffset: pathOffset, Kind: k, Err: err}
	}
}

// Loaded is the outcome of loading one descriptor.
type Loaded = foundation.Result[*Record, *ErrorRecord]

// Rendered is the outcome of rendering one document.
type Rendered = foundation.Result[*Document, *ErrorRecord]
