package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "imgbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration    *prom.HistogramVec
	buildOutcome     *prom.CounterVec
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the build metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of image builds including retries",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		}, []string{"image"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"image", "outcome"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_retries_total",
			Help:      "Build retries after transient failures",
		}, []string{"image"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_retry_exhausted_total",
			Help:      "Builds that still failed after the last allowed retry",
		}, []string{"image"}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.retries, pr.retriesExhausted)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(image string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(image).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(image string, outcome Outcome) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(image, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBuildRetry(image string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(image).Inc()
}

func (p *PrometheusRecorder) IncBuildRetryExhausted(image string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(image).Inc()
}

// WriteTextfile writes everything gathered from g to path in the Prometheus
// text exposition format.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
