package observer

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codetrainer"

// PrometheusRecorder exports sandbox metrics as Prometheus collectors.
type PrometheusRecorder struct {
	compileTotal    *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	runDuration     *prometheus.HistogramVec
	executionsTotal *prometheus.CounterVec
}

// NewPrometheusRecorder registers the collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		compileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_total",
			Help:      "Compilations by language and result.",
		}, []string{"language", "ok"}),
		compileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Compilation wall time.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"language"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run phase wall time by terminal state.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		}, []string{"language", "state"}),
		executionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Finished execution requests.",
		}, []string{"language", "state", "passed"}),
	}
	for _, c := range []prometheus.Collector{r.compileTotal, r.compileDuration, r.runDuration, r.executionsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, elapsed time.Duration) {
	r.compileTotal.WithLabelValues(languageID, strconv.FormatBool(ok)).Inc()
	r.compileDuration.WithLabelValues(languageID).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) ObserveRun(ctx context.Context, languageID string, state string, elapsed time.Duration) {
	r.runDuration.WithLabelValues(languageID, state).Observe(elapsed.Seconds())
}

// ObserveExecution labels ungraded executions with passed="none".
func (r *PrometheusRecorder) ObserveExecution(ctx context.Context, languageID string, state string, passed *bool) {
	label := "none"
	if passed != nil {
		label = strconv.FormatBool(*passed)
	}
	r.executionsTotal.WithLabelValues(languageID, state, label).Inc()
}
