// Package metrics records content pipeline observations.
package metrics

import "time"

// Recorder is implemented by PrometheusRecorder and NoopRecorder.
type Recorder interface {
	ObserveCMSRequest(operation string, d time.Duration, success bool)
	IncViewIncrementFailure()
	AddCompileResult(result string, n int)
	ObserveCompileDuration(d time.Duration)
}

// NoopRecorder discards everything (default when metrics are not wired).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCMSRequest(string, time.Duration, bool) {}
func (NoopRecorder) IncViewIncrementFailure()                      {}
func (NoopRecorder) AddCompileResult(string, int)                   {}
func (NoopRecorder) ObserveCompileDuration(time.Duration)          {}
