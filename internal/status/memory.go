package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryTracker struct {
	mu       sync.RWMutex
	statuses map[uuid.UUID]TargetStatus
}

// NewMemoryTracker creates a Tracker that keeps status in memory.
// Unknown targets report not_started.
func NewMemoryTracker() Tracker {
	return &memoryTracker{
		statuses: make(map[uuid.UUID]TargetStatus),
	}
}

func (m *memoryTracker) GetStatus(_ context.Context, targetID uuid.UUID) (*TargetStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.statuses[targetID]
	if !ok {
		return &TargetStatus{Phase: PhaseNotStarted}, nil
	}
	return &st, nil
}

func (m *memoryTracker) SetStatus(_ context.Context, targetID uuid.UUID, phase Phase, jobType string) error {
	if !phase.Valid() {
		return fmt.Errorf("invalid phase %q", phase)
	}

	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[targetID] = TargetStatus{
		Phase:          phase,
		CurrentJobType: currentJobType(phase, jobType),
		UpdatedAt:      &now,
	}
	return nil
}
