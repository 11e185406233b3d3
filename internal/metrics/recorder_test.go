package metrics

import (
	"testing"
	"time"
)

// Compile-time checks that both implementations satisfy Recorder.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncStepInvocation("x")
	r.IncItemEmitted("x")
	r.IncStepFailure("x")
	r.ObservePipeDuration("p", time.Second, ResultFailed)
}
