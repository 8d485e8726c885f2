package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryJob struct {
	*Job
	seq uint64
}

type memoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*memoryJob
	seq  uint64
}

// NewMemoryStore creates a Store that keeps jobs in memory
func NewMemoryStore() Store {
	return &memoryStore{
		jobs: make(map[uuid.UUID]*memoryJob),
	}
}

func (m *memoryStore) Insert(_ context.Context, job *Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return false, fmt.Errorf("job %s already exists", job.ID)
	}
	for _, existing := range m.jobs {
		if existing.DedupKey == job.DedupKey && existing.Status.Active() {
			return false, nil
		}
	}

	stored := job.clone()
	stored.Status = StatusPending
	stored.Error = ""
	stored.StartedAt = nil
	stored.CompletedAt = nil

	m.seq++
	m.jobs[job.ID] = &memoryJob{Job: stored, seq: m.seq}
	return true, nil
}

func (m *memoryStore) CountByStatus(_ context.Context, status Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, job := range m.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) ClaimNext(_ context.Context, startedAt time.Time) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	busy := make(map[uuid.UUID]struct{})
	for _, job := range m.jobs {
		if job.Status == StatusProcessing {
			busy[job.TargetID] = struct{}{}
		}
	}

	var best *memoryJob
	for _, job := range m.jobs {
		if job.Status != StatusPending {
			continue
		}
		if _, isBusy := busy[job.TargetID]; isBusy {
			continue
		}
		if best == nil || runsBefore(job, best) {
			best = job
		}
	}
	if best == nil {
		return nil, nil
	}

	best.Status = StatusProcessing
	best.StartedAt = &startedAt
	return best.clone(), nil
}

func runsBefore(a, b *memoryJob) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.seq < b.seq
}

func (m *memoryStore) Complete(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	return m.finish(id, StatusCompleted, completedAt, "")
}

func (m *memoryStore) Fail(_ context.Context, id uuid.UUID, completedAt time.Time, reason string) error {
	return m.finish(id, StatusFailed, completedAt, reason)
}

func (m *memoryStore) finish(id uuid.UUID, status Status, completedAt time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return fmt.Errorf("job %s: %w", id, ErrJobNotProcessing)
	}
	job.Status = status
	job.CompletedAt = &completedAt
	job.Error = reason
	return nil
}

func (m *memoryStore) ResetProcessing(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, job := range m.jobs {
		if job.Status == StatusProcessing {
			job.Status = StatusPending
			job.StartedAt = nil
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, job := range m.jobs {
		if job.Status.Active() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.clone(), nil
}

func (m *memoryStore) List(_ context.Context, filter ListFilter) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*memoryJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.TargetID != uuid.Nil && job.TargetID != filter.TargetID {
			continue
		}
		matched = append(matched, job)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]*Job, len(matched))
	for i, job := range matched {
		result[i] = job.clone()
	}
	return result, nil
}
