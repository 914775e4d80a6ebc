package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalogbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	discovered    *prom.CounterVec
	outcomes      *prom.CounterVec
	requests      *prom.CounterVec
	retries       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the run metrics. A nil registry
// creates a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		discovered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "discovered_files_total",
			Help:      "Descriptor files discovered by source type",
		}, []string{"source_type"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "module_outcomes_total",
			Help:      "Per-file outcomes by source type",
		}, []string{"source_type", "outcome"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Outbound requests by operation and result",
		}, []string{"operation", "result"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried outbound requests by operation",
		}, []string{"operation"}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.discovered, pr.outcomes, pr.requests, pr.retries)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddDiscovered(sourceType string, n int) {
	p.discovered.WithLabelValues(sourceType).Add(float64(n))
}

func (p *PrometheusRecorder) IncOutcome(sourceType string, outcome OutcomeLabel) {
	p.outcomes.WithLabelValues(sourceType, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRequest(operation string, result ResultLabel) {
	p.requests.WithLabelValues(operation, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRetry(operation string) {
	p.retries.WithLabelValues(operation).Inc()
}

// WriteTextfile writes every metric of the recorder's registry to path in the text
// exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
