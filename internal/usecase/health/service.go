package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Unhealthy indicates the storage check failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	OpenIndexes int
}

// Service coordinates health checks.
type Service struct {
	storage StoragePinger
	indexes IndexCounter
}

// New creates a Service. indexes can be nil.
func New(storage StoragePinger, indexes IndexCounter) *Service {
	return &Service{storage: storage, indexes: indexes}
}

// Check runs the storage check and collects index statistics.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"storage": CheckOK}
	status := Healthy
	if err := s.storage.Ping(ctx); err != nil {
		checks["storage"] = CheckError
		status = Unhealthy
	}

	r := Report{Status: status, Checks: checks}
	if s.indexes != nil {
		r.OpenIndexes = s.indexes.OpenIndexes()
	}
	return r
}
