package wikiquery

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/wikiquery/internal/usecase/health"
)

// HealthStatus represents the aggregated backend health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health pings every backend.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	var err error
	if report.Status != healthuc.Healthy {
		err = errUnhealthy
	}
	c.obs.observe("health", start, err)

	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
