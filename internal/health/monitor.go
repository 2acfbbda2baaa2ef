package health

import (
	"context"
	"sync"
	"time"
)

// Check inspects one component.
type Check func(ctx context.Context) (SystemStatus, string)

// Pinger is anything with a liveness check (record store, ledger).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports failStatus when p's ping fails.
func PingCheck(p Pinger, failStatus SystemStatus) Check {
	return func(ctx context.Context) (SystemStatus, string) {
		if err := p.Ping(ctx); err != nil {
			return failStatus, err.Error()
		}
		return StatusHealthy, ""
	}
}

// SessionCheck reports the wallet session. Without a configured provider the
// dashboard cannot charge, which is a degradation; an idle session is not.
func SessionCheck(configured bool, status func() (bool, string)) Check {
	return func(ctx context.Context) (SystemStatus, string) {
		if !configured {
			return StatusDegraded, "wallet provider not configured"
		}
		connected, account := status()
		if !connected {
			return StatusHealthy, "not connected"
		}
		return StatusHealthy, "connected as " + account
	}
}

// Monitor aggregates health status from registered component checks.
type Monitor struct {
	names      []string
	checks     map[string]Check
	interval   time.Duration
	lastCheck  time.Time
	lastReport *HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a monitor that re-runs checks at most once per interval.
func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		checks:   make(map[string]Check),
		interval: interval,
	}
}

// Register adds a named check. Registering a name twice replaces the check.
func (m *Monitor) Register(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[name]; !ok {
		m.names = append(m.names, name)
	}
	m.checks[name] = check
	m.lastReport = nil
}

// CheckHealth runs every check and aggregates the worst status.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering the store and node
	if m.lastReport != nil && time.Since(m.lastCheck) < m.interval {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, len(m.names)),
	}
	for _, name := range m.names {
		status, detail := m.checks[name](ctx)
		report.Components[name] = ComponentHealth{Name: name, Status: status, Detail: detail}
		if status.rank() > report.SystemStatus.rank() {
			report.SystemStatus = status
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
