package issues

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type itemKey struct {
	targetID uuid.UUID
	kind     Kind
	number   int
}

type watermarkKey struct {
	targetID uuid.UUID
	resource string
}

type memoryStore struct {
	mu         sync.RWMutex
	items      map[itemKey]Item
	comments   map[string]Comment
	watermarks map[watermarkKey]time.Time
}

// NewMemoryStore creates a Store that keeps everything in memory
func NewMemoryStore() Store {
	return &memoryStore{
		items:      make(map[itemKey]Item),
		comments:   make(map[string]Comment),
		watermarks: make(map[watermarkKey]time.Time),
	}
}

func (m *memoryStore) UpsertItem(_ context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := itemKey{targetID: item.TargetID, kind: item.Kind, number: item.Number}
	if existing, ok := m.items[key]; ok {
		item.CreatedAt = existing.CreatedAt
	}
	m.items[key] = item
	return nil
}

func (m *memoryStore) ListItems(_ context.Context, targetID uuid.UUID, kind Kind) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Item
	for key, item := range m.items {
		if key.targetID == targetID && key.kind == kind {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *memoryStore) UpsertComment(_ context.Context, comment Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.comments[comment.NodeID]; ok {
		existing.Author = comment.Author
		if existing.Body != comment.Body {
			existing.Body = comment.Body
			existing.Sentiment = nil
		}
		m.comments[comment.NodeID] = existing
		return nil
	}

	comment.Sentiment = nil
	m.comments[comment.NodeID] = comment
	return nil
}

func (m *memoryStore) ListUnscoredComments(_ context.Context, targetID uuid.UUID, limit int) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Comment
	for _, comment := range m.comments {
		if comment.TargetID == targetID && comment.Sentiment == nil {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].NodeID < result[j].NodeID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memoryStore) SetSentiment(_ context.Context, nodeID string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	comment, ok := m.comments[nodeID]
	if !ok {
		return ErrCommentNotFound
	}
	comment.Sentiment = &score
	m.comments[nodeID] = comment
	return nil
}

func (m *memoryStore) GetWatermark(_ context.Context, targetID uuid.UUID, resource string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mark, ok := m.watermarks[watermarkKey{targetID: targetID, resource: resource}]
	if !ok {
		return nil, nil
	}
	return &mark, nil
}

func (m *memoryStore) AdvanceWatermark(_ context.Context, targetID uuid.UUID, resource string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := watermarkKey{targetID: targetID, resource: resource}
	if current, ok := m.watermarks[key]; ok && !updatedAt.After(current) {
		return nil
	}
	m.watermarks[key] = updatedAt.UTC()
	return nil
}
