package metrics

import "time"

// Outcome enumerates final build results for counters.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines observability hooks for image builds.
type Recorder interface {
	ObserveBuildDuration(image string, d time.Duration)
	IncBuildOutcome(image string, outcome Outcome)
	IncBuildRetry(image string)
	IncBuildRetryExhausted(image string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, Outcome)            {}
func (NoopRecorder) IncBuildRetry(string)                       {}
func (NoopRecorder) IncBuildRetryExhausted(string)              {}
