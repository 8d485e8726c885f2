// Package status tracks the sync phase of each target as driven by the job coordinator.
package status

import (
	"errors"
	"time"
)

// Phase is the sync phase of a target
type Phase string

const (
	// PhaseNotStarted means no job has run against the target yet
	PhaseNotStarted Phase = "not_started"

	// PhaseInProgress means a job for the target is processing
	PhaseInProgress Phase = "in_progress"

	// PhaseCompleted means the most recent job for the target succeeded
	PhaseCompleted Phase = "completed"

	// PhaseFailed means the most recent job for the target failed
	PhaseFailed Phase = "failed"
)

// ErrTargetNotFound is returned when the target does not exist
var ErrTargetNotFound = errors.New("target not found")

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseNotStarted, PhaseInProgress, PhaseCompleted, PhaseFailed:
		return true
	default:
		return false
	}
}

// TargetStatus is the externally visible sync state of a target
type TargetStatus struct {
	Phase Phase `json:"status"`

	// CurrentJobType is the kind of the processing job, set only while in progress
	CurrentJobType *string `json:"currentJobType"`

	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
