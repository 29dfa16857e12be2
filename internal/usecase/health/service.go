package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search works but without semantic ranking.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable; search cannot answer.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates the component is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store    StorePinger
	provider ProviderChecker
}

// New creates a Service. provider is nil when no embedding API key is configured.
func New(store StorePinger, provider ProviderChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Check runs health checks against all components.
// A store failure is fatal; a provider failure only degrades search to keyword mode.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
		status = Unhealthy
	} else {
		checks["store"] = CheckOK
	}

	switch {
	case s.provider == nil:
		checks["embedding"] = CheckDisabled
		if status == Healthy {
			status = Degraded
		}
	case s.provider.HealthCheck(ctx) != nil:
		checks["embedding"] = CheckError
		if status == Healthy {
			status = Degraded
		}
	default:
		checks["embedding"] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
