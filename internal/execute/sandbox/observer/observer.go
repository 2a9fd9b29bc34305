// Package observer defines metrics hooks for sandbox execution.
package observer

import (
	"context"
	"time"
)

// MetricsRecorder records sandbox metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, languageID string, ok bool, elapsed time.Duration)
	ObserveRun(ctx context.Context, languageID string, state string, elapsed time.Duration)
	ObserveExecution(ctx context.Context, languageID string, state string, passed *bool)
}

// NoopMetricsRecorder discards everything.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, elapsed time.Duration) {
}

func (NoopMetricsRecorder) ObserveRun(ctx context.Context, languageID string, state string, elapsed time.Duration) {
}

func (NoopMetricsRecorder) ObserveExecution(ctx context.Context, languageID string, state string, passed *bool) {
}
