package metrics

import "time"

// OutcomeLabel is the final state of one discovered file.
type OutcomeLabel string

const (
	OutcomeDocument OutcomeLabel = "document"
	OutcomeIgnored  OutcomeLabel = "ignored"
	OutcomeError    OutcomeLabel = "error"
)

// ResultLabel enumerates results of outbound calls.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for a generation run. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	AddDiscovered(sourceType string, n int)
	IncOutcome(sourceType string, outcome OutcomeLabel)
	IncRequest(operation string, result ResultLabel)
	IncRetry(operation string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) AddDiscovered(string, int)                  {}
func (NoopRecorder) IncOutcome(string, OutcomeLabel)            {}
func (NoopRecorder) IncRequest(string, ResultLabel)             {}
func (NoopRecorder) IncRetry(string)                            {}
