package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratum",
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Completed engine ticks.",
		},
		[]string{"run"},
	)
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratum",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Pipeline dispatches by outcome.",
		},
		[]string{"pipeline", "success"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stratum",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Pipeline dispatch duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"pipeline"},
	)
	strategyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratum",
			Subsystem: "strategy",
			Name:      "failures_total",
			Help:      "Strategy executions that aborted a pipeline tick.",
		},
		[]string{"pipeline", "strategy"},
	)
	pipelineValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "stratum",
			Subsystem: "pipeline",
			Name:      "value",
			Help:      "Last settled pipeline value.",
		},
		[]string{"pipeline"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ticksTotal, dispatchTotal, dispatchDuration, strategyFailures, pipelineValue)
	})
}

func RecordTick(run string) {
	RegisterMetrics()
	ticksTotal.WithLabelValues(run).Inc()
}

func RecordDispatch(pipeline string, duration time.Duration, success bool) {
	RegisterMetrics()
	dispatchTotal.WithLabelValues(pipeline, strconv.FormatBool(success)).Inc()
	dispatchDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

func RecordStrategyFailure(pipeline, strategy string) {
	RegisterMetrics()
	strategyFailures.WithLabelValues(pipeline, strategy).Inc()
}

func RecordPipelineValue(pipeline string, value float64) {
	RegisterMetrics()
	pipelineValue.WithLabelValues(pipeline).Set(value)
}
