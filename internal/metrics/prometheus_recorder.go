package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagepipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	invocations  *prom.CounterVec
	items        *prom.CounterVec
	failures     *prom.CounterVec
	pipeDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		invocations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_invocations_total",
			Help:      "Processor steps prepared, by processor",
		}, []string{"processor"}),
		items: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "items_emitted_total",
			Help:      "Items yielded by each processor's stream",
		}, []string{"processor"}),
		failures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Errors raised by processors",
		}, []string{"processor"}),
		pipeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipe_duration_seconds",
			Help:      "Time to drain a pipe",
			Buckets:   prom.DefBuckets,
		}, []string{"pipe", "result"}),
	}
	reg.MustRegister(pr.invocations, pr.items, pr.failures, pr.pipeDuration)
	return pr
}

func (p *PrometheusRecorder) IncStepInvocation(processor string) {
	p.invocations.WithLabelValues(processor).Inc()
}

func (p *PrometheusRecorder) IncItemEmitted(processor string) {
	p.items.WithLabelValues(processor).Inc()
}

func (p *PrometheusRecorder) IncStepFailure(processor string) {
	p.failures.WithLabelValues(processor).Inc()
}

func (p *PrometheusRecorder) ObservePipeDuration(pipe string, d time.Duration, result ResultLabel) {
	p.pipeDuration.WithLabelValues(pipe, string(result)).Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered from reg to path.
func WriteTextfile(path string, reg *prom.Registry) error {
	return prom.WriteToTextfile(path, reg)
}
