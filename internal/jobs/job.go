package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job
type Status string

const (
	// StatusPending means the job waits for a free slot and a free target
	StatusPending Status = "pending"

	// StatusProcessing means a worker owns the job
	StatusProcessing Status = "processing"

	// StatusCompleted means the handler returned without error
	StatusCompleted Status = "completed"

	// StatusFailed means enrichment, validation or the handler failed
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Active reports whether a job in status s blocks an equivalent enqueue
func (s Status) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// Job is a persisted unit of background work
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"type"`
	TargetID    uuid.UUID       `json:"targetId"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	Args        json.RawMessage `json:"args"`
	DedupKey    string          `json:"-"`
	Status      Status          `json:"status"`
	Priority    int             `json:"priority"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Request describes a job to enqueue
type Request struct {
	TargetID uuid.UUID
	OwnerID  uuid.UUID
	Args     Args

	// Priority orders pending jobs; lower values run first
	Priority int
}

// ListFilter selects jobs for List. Zero fields match everything.
type ListFilter struct {
	Status   Status
	TargetID uuid.UUID
	Limit    int
}

// DefaultListLimit is applied when ListFilter.Limit is zero
const DefaultListLimit = 100

// ContentKey identifies equivalent job requests. canonicalArgs must come from EncodeArgs.
func ContentKey(kind Kind, targetID uuid.UUID, canonicalArgs []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(targetID[:])
	h.Write([]byte{0})
	h.Write(canonicalArgs)
	return hex.EncodeToString(h.Sum(nil))
}

func (j *Job) clone() *Job {
	cp := *j
	cp.Args = append(json.RawMessage(nil), j.Args...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
