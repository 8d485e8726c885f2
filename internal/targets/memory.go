package targets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryDirectory struct {
	mu      sync.RWMutex
	owners  map[uuid.UUID]*Owner
	targets map[uuid.UUID]*Target
}

// NewMemoryDirectory creates a Directory that keeps everything in memory
func NewMemoryDirectory() Directory {
	return &memoryDirectory{
		owners:  make(map[uuid.UUID]*Owner),
		targets: make(map[uuid.UUID]*Target),
	}
}

func (m *memoryDirectory) RegisterOwner(_ context.Context, login, accessToken string) (*Owner, error) {
	if err := validateOwner(login, accessToken); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, owner := range m.owners {
		if owner.Login == login {
			owner.AccessToken = accessToken
			cp := *owner
			return &cp, nil
		}
	}

	owner := &Owner{
		ID:          uuid.New(),
		Login:       login,
		AccessToken: accessToken,
		CreatedAt:   time.Now().UTC(),
	}
	m.owners[owner.ID] = owner
	cp := *owner
	return &cp, nil
}

func (m *memoryDirectory) GetOwner(_ context.Context, id uuid.UUID) (*Owner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.owners[id]
	if !ok {
		return nil, ErrOwnerNotFound
	}
	cp := *owner
	return &cp, nil
}

func (m *memoryDirectory) RegisterTarget(_ context.Context, ownerID uuid.UUID, namespace, name string) (*Target, error) {
	if err := validateTarget(namespace, name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[ownerID]; !ok {
		return nil, fmt.Errorf("owner %s: %w", ownerID, ErrOwnerNotFound)
	}

	for _, target := range m.targets {
		if target.Namespace == namespace && target.Name == name {
			target.OwnerID = ownerID
			cp := *target
			return &cp, nil
		}
	}

	target := &Target{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Namespace: namespace,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.targets[target.ID] = target
	cp := *target
	return &cp, nil
}

func (m *memoryDirectory) GetTarget(_ context.Context, id uuid.UUID) (*Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	target, ok := m.targets[id]
	if !ok {
		return nil, ErrTargetNotFound
	}
	cp := *target
	return &cp, nil
}

func (m *memoryDirectory) ListTargets(_ context.Context) ([]*Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Target, 0, len(m.targets))
	for _, target := range m.targets {
		cp := *target
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Namespace != result[j].Namespace {
			return result[i].Namespace < result[j].Namespace
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
