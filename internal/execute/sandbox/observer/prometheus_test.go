package observer

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	passed := true

	rec.ObserveCompile(ctx, "cpp", false, 300*time.Millisecond)
	rec.ObserveRun(ctx, "python", "Completed", 20*time.Millisecond)
	rec.ObserveExecution(ctx, "python", "Done", &passed)
	rec.ObserveExecution(ctx, "python", "Done", nil)
	rec.ObserveExecution(ctx, "python", "Done", nil)

	if got := testutil.ToFloat64(rec.compileTotal.WithLabelValues("cpp", "false")); got != 1 {
		t.Fatalf("compile_total = %v", got)
	}
	if got := testutil.ToFloat64(rec.executionsTotal.WithLabelValues("python", "Done", "true")); got != 1 {
		t.Fatalf("executions passed = %v", got)
	}
	if got := testutil.ToFloat64(rec.executionsTotal.WithLabelValues("python", "Done", "none")); got != 2 {
		t.Fatalf("executions ungraded = %v", got)
	}
	if got := testutil.CollectAndCount(rec.runDuration); got != 1 {
		t.Fatalf("run duration series = %d", got)
	}
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
