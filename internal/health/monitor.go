package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/vietddude/resilience/internal/infra/storage"
)

// Thresholds on pending journal records.
const (
	DegradedPending = 0
	CriticalPending = 50
)

// cacheFor bounds how often backends are probed.
const cacheFor = 10 * time.Second

// Monitor aggregates health status from the journal backends.
type Monitor struct {
	journals   map[string]storage.FailedExecutionRepository
	policies   []string
	lastCheck  time.Time
	lastReport HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a monitor over named journal backends. Policies are reported as-is.
func NewMonitor(journals map[string]storage.FailedExecutionRepository, policies []string) *Monitor {
	return &Monitor{
		journals: journals,
		policies: policies,
	}
}

// CheckHealth probes every journal backend. Results are cached for a short interval.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastCheck.IsZero() && time.Since(m.lastCheck) < cacheFor {
		return m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Journals:     make(map[string]JournalHealth, len(m.journals)),
		Policies:     m.policies,
	}

	for _, name := range slices.Sorted(maps.Keys(m.journals)) {
		h := checkJournal(ctx, name, m.journals[name])
		report.Journals[name] = h
		report.SystemStatus = worst(report.SystemStatus, h.Status)
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func checkJournal(ctx context.Context, name string, repo storage.FailedExecutionRepository) JournalHealth {
	h := JournalHealth{Backend: name, Status: StatusHealthy}

	if err := repo.Health(ctx); err != nil {
		h.Status = StatusCritical
		h.Error = err.Error()
		return h
	}
	h.Reachable = true

	count, err := repo.Count(ctx)
	if err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
		return h
	}
	h.PendingFailures = count

	if count > CriticalPending {
		h.Status = StatusCritical
	} else if count > DegradedPending {
		h.Status = StatusDegraded
	}
	return h
}
