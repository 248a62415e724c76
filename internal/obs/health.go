package obs

import (
	"context"
	"fmt"

	"github.com/meshio/exodus/internal/substrate/container"
)

// HealthStatus is a point-in-time health snapshot.
type HealthStatus struct {
	Status string
	Checks map[string]CheckResult
}

// CheckResult is one named probe's outcome.
type CheckResult struct {
	Healthy bool
	Message string
}

// HealthChecker probes an open container's reachability and chunk
// cache occupancy, the substrate analogue of the teacher's
// database-level health checker.
type HealthChecker struct {
	c *container.Container
}

// NewHealthChecker builds a checker bound to an already-open container.
func NewHealthChecker(c *container.Container) *HealthChecker {
	return &HealthChecker{c: c}
}

// Check runs all probes and returns an aggregate status.
func (hc *HealthChecker) Check(ctx context.Context) (*HealthStatus, error) {
	checks := map[string]CheckResult{}

	if hc.c == nil {
		checks["container"] = CheckResult{Healthy: false, Message: "no container bound"}
	} else {
		checks["container"] = CheckResult{Healthy: true, Message: fmt.Sprintf("open at %s", hc.c.Path())}
		stats := hc.c.CacheStats()
		checks["chunk_cache"] = CheckResult{
			Healthy: true,
			Message: fmt.Sprintf("size=%d capacity=%d items=%d", stats.Size, stats.Capacity, stats.Items),
		}
	}

	status := "healthy"
	for _, r := range checks {
		if !r.Healthy {
			status = "unhealthy"
			break
		}
	}
	return &HealthStatus{Status: status, Checks: checks}, nil
}
