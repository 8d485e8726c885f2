package v1

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// SubmitJobRequest is the body of POST /v1/jobs
type SubmitJobRequest struct {
	Type     jobs.Kind       `json:"type"`
	TargetID uuid.UUID       `json:"targetId"`
	Args     json.RawMessage `json:"args,omitempty"`
	Priority int             `json:"priority"`
}

// SubmitJobResponse reports whether a new job was created
type SubmitJobResponse struct {
	Queued bool `json:"queued"`
}

// ListJobsResponse is the body of GET /v1/jobs
type ListJobsResponse struct {
	Jobs  []*jobs.Job `json:"jobs"`
	Count int         `json:"count"`
}

// RegisterTargetRequest is the body of POST /v1/targets
type RegisterTargetRequest struct {
	Login       string `json:"login"`
	AccessToken string `json:"accessToken"`
	FullName    string `json:"fullName"`
}

// ListTargetsResponse is the body of GET /v1/targets
type ListTargetsResponse struct {
	Targets []*targets.Target `json:"targets"`
	Count   int               `json:"count"`
}
