package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/fixzit/lease-engine/internal/appcontext"
)

// MockJob counts its executions per organization. Single-organization runs are counted under appcontext.NoOrganization.
type MockJob struct {
	Name              string
	Interval          time.Duration
	MultiOrganization bool
	// Err is returned by every execution.
	Err error

	mu         sync.Mutex
	executions map[string]int
}

var _ Job = (*MockJob)(nil)

func (m *MockJob) GetName() string {
	return m.Name
}

func (m *MockJob) GetInterval() time.Duration {
	return m.Interval
}

func (m *MockJob) IsJobMultiOrganization() bool {
	return m.MultiOrganization
}

func (m *MockJob) Execute(ctx context.Context) error {
	organizationID := appcontext.MustGetOrganizationIDFromContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.executions == nil {
		m.executions = map[string]int{}
	}
	m.executions[organizationID]++
	return m.Err
}

// GetExecutions returns the number of executions across all organizations.
func (m *MockJob) GetExecutions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, count := range m.executions {
		total += count
	}
	return total
}

func (m *MockJob) GetOrganizationExecutions(organizationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executions[organizationID]
}
