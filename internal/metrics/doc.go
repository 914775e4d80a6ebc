// Package metrics records run metrics for catalog generation.
//
// Components receive a Recorder and default to NoopRecorder, so callers never
// check for nil. When a metrics file is requested the command wires a
// PrometheusRecorder into a private registry and writes it once in the text
// exposition format when the run ends. Nothing listens on a port.
package metrics
