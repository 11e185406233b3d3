package metrics

import "time"

// ResultLabel enumerates pipe run outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for pipe runs and processor steps.
type Recorder interface {
	// IncStepInvocation counts a processor call made while preparing a step.
	IncStepInvocation(processor string)
	// IncItemEmitted counts an item yielded by a processor's stream.
	IncItemEmitted(processor string)
	// IncStepFailure counts an error raised by or yielded from a processor.
	IncStepFailure(processor string)
	// ObservePipeDuration records how long a pipe took to drain.
	ObservePipeDuration(pipe string, d time.Duration, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncStepInvocation(string)                               {}
func (NoopRecorder) IncItemEmitted(string)                                  {}
func (NoopRecorder) IncStepFailure(string)                                  {}
func (NoopRecorder) ObservePipeDuration(string, time.Duration, ResultLabel) {}
