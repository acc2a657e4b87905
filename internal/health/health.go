// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// JournalHealth contains health metrics for an exhaustion journal backend.
type JournalHealth struct {
	Backend         string       `json:"backend"`
	Status          SystemStatus `json:"status"`
	Reachable       bool         `json:"reachable"`
	PendingFailures int          `json:"pending_failures"`
	Error           string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus             `json:"system_status"`
	Journals     map[string]JournalHealth `json:"journals"`
	Policies     []string                 `json:"policies,omitempty"`
}

// worst returns the more severe of a and b.
func worst(a, b SystemStatus) SystemStatus {
	if a == StatusCritical || b == StatusCritical {
		return StatusCritical
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
