package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
)

const namespace = "wikiquery"

// Query pipeline Prometheus metrics.
var (
	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_stage_duration_seconds",
			Help:      "Query pipeline stage duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	QueryStageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_stage_errors_total",
			Help:      "Query pipeline stage failures",
		},
		[]string{"stage", "error_type"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Evaluated queries by return type and outcome",
		},
		[]string{"return_type", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query evaluation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"return_type"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Backend circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"breaker"},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers the pipeline metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryStageDuration)
	prometheus.MustRegister(QueryStageErrorsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(BreakerState)
	queryMetricsRegistered = true
}

// QueryObserver records pipeline timings into the Prometheus collectors.
type QueryObserver struct{}

// ObserveStage records one stage run.
func (QueryObserver) ObserveStage(stage domain.Stage, elapsed time.Duration, err error) {
	QueryStageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		QueryStageErrorsTotal.WithLabelValues(string(stage), ErrorType(err)).Inc()
	}
}

// ObserveQuery records one full evaluation.
func (QueryObserver) ObserveQuery(returnType domquery.ReturnType, elapsed time.Duration, err error) {
	rt := string(returnType)
	if rt == "" {
		rt = "unknown"
	}
	status := "ok"
	if err != nil {
		status = ErrorType(err)
	}
	QueriesTotal.WithLabelValues(rt, status).Inc()
	QueryDuration.WithLabelValues(rt).Observe(elapsed.Seconds())
}

// ErrorType maps an evaluation error to a low-cardinality label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConsistency):
		return "consistency"
	case errors.Is(err, domain.ErrBackend):
		return "backend"
	default:
		return "internal"
	}
}

// SetBreakerState exports a breaker transition.
func SetBreakerState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	BreakerState.WithLabelValues(name).Set(v)
}
