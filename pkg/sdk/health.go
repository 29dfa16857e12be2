package prodex

import "context"

// HealthStatus is the aggregated health of the store and embedding provider.
type HealthStatus struct {
	Status string            // "ok", "degraded" or "error"
	Checks map[string]string // "store", "embedding" -> "ok", "error" or "disabled"
}

// Healthy reports whether search runs at full capability.
func (h HealthStatus) Healthy() bool { return h.Status == "ok" }

// Health checks the store and, when configured, the embedding provider.
// A missing or failing provider degrades search to keyword mode; only a
// store failure makes the client unusable.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	out := HealthStatus{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, res := range report.Checks {
		out.Checks[name] = string(res)
	}
	return out
}
