package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.NewBackendError(domain.StageGraph, "", context.DeadlineExceeded), "timeout"},
		{fmt.Errorf("evaluate: %w", context.Canceled), "canceled"},
		{domain.NewValidationError("limit", "negative"), "validation"},
		{domain.NewConsistencyError(domain.StageProjection, []int64{1}), "consistency"},
		{domain.NewBackendError(domain.StageText, "", errors.New("down")), "backend"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestQueryObserver_Stage(t *testing.T) {
	var o QueryObserver
	before := testutil.ToFloat64(QueryStageErrorsTotal.WithLabelValues("identity", "backend"))

	o.ObserveStage(domain.StageIdentity, 3*time.Millisecond, nil)
	o.ObserveStage(domain.StageIdentity, time.Millisecond,
		domain.NewBackendError(domain.StageIdentity, "titles", errors.New("down")))

	after := testutil.ToFloat64(QueryStageErrorsTotal.WithLabelValues("identity", "backend"))
	if after-before != 1 {
		t.Errorf("expected one stage error, got %f", after-before)
	}
	if testutil.CollectAndCount(QueryStageDuration) == 0 {
		t.Error("expected stage duration observations")
	}
}

func TestQueryObserver_Query(t *testing.T) {
	var o QueryObserver
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("count", "ok"))

	o.ObserveQuery(domquery.ReturnCount, time.Millisecond, nil)

	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues("count", "ok")) - before; got != 1 {
		t.Errorf("expected one ok query, got %f", got)
	}

	o.ObserveQuery("", time.Millisecond, errors.New("boom"))
	if testutil.ToFloat64(QueriesTotal.WithLabelValues("unknown", "internal")) < 1 {
		t.Error("expected unknown return type to be labelled")
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("graph", gobreaker.StateOpen)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("graph")); got != 2 {
		t.Errorf("open = %f, want 2", got)
	}
	SetBreakerState("graph", gobreaker.StateHalfOpen)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("graph")); got != 1 {
		t.Errorf("half-open = %f, want 1", got)
	}
}

func TestRegisterQueryMetrics_Idempotent(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics()
}
