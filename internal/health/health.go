// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// rank orders statuses so the worst one wins when aggregating.
func (s SystemStatus) rank() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// ComponentHealth is the outcome of one component check.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Components   map[string]ComponentHealth `json:"components"`
}
