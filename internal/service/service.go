// Package service provides the operations the API and CLI expose on top of
// the job coordinator, the status tracker and the targets directory.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

var (
	// ErrTargetNotFound is returned when a target is not registered
	ErrTargetNotFound = errors.New("target not found")
	// ErrJobNotFound is returned when a job does not exist
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidRequest is returned for malformed submissions and registrations
	ErrInvalidRequest = errors.New("invalid request")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service

// Service defines the auditor operations
type Service interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// SubmitJob enqueues a job; it reports false when an equivalent job is already active
	SubmitJob(ctx context.Context, opts ...Option[SubmitJobOptions]) (bool, error)

	// GetJob returns a job by id
	GetJob(ctx context.Context, id uuid.UUID) (*jobs.Job, error)

	// ListJobs returns jobs newest first
	ListJobs(ctx context.Context, opts ...Option[ListJobsOptions]) ([]*jobs.Job, error)

	// GetTargetStatus returns the sync status of a registered target
	GetTargetStatus(ctx context.Context, targetID uuid.UUID) (*status.TargetStatus, error)

	// RegisterTarget registers namespace/name for the owner login, storing its credential
	RegisterTarget(ctx context.Context, opts ...Option[RegisterTargetOptions]) (*targets.Target, error)

	// ListTargets returns every registered target
	ListTargets(ctx context.Context) ([]*targets.Target, error)
}

// Option is a function that sets an option for a service operation
type Option[T SubmitJobOptions | ListJobsOptions | RegisterTargetOptions] func(*T) error

// SubmitJobOptions is the options for the SubmitJob operation
type SubmitJobOptions struct {
	TargetID uuid.UUID
	Kind     jobs.Kind
	Args     json.RawMessage
	Priority int
}

// ListJobsOptions is the options for the ListJobs operation
type ListJobsOptions struct {
	Status   jobs.Status
	TargetID uuid.UUID
	Limit    int
}

// RegisterTargetOptions is the options for the RegisterTarget operation
type RegisterTargetOptions struct {
	Login       string
	AccessToken string
	Namespace   string
	Name        string
}

// WithTarget sets the target a job is submitted for or filtered by
func WithTarget[T SubmitJobOptions | ListJobsOptions](id uuid.UUID) Option[T] {
	return func(o *T) error {
		if id == uuid.Nil {
			return fmt.Errorf("%w: target id is required", ErrInvalidRequest)
		}
		switch o := any(o).(type) {
		case *SubmitJobOptions:
			o.TargetID = id
		case *ListJobsOptions:
			o.TargetID = id
		}
		return nil
	}
}

// WithKind sets the job kind and its raw arguments
func WithKind(kind jobs.Kind, args json.RawMessage) Option[SubmitJobOptions] {
	return func(o *SubmitJobOptions) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: unknown job type %q", ErrInvalidRequest, kind)
		}
		o.Kind = kind
		o.Args = args
		return nil
	}
}

// WithPriority sets the job priority; lower values run first
func WithPriority(priority int) Option[SubmitJobOptions] {
	return func(o *SubmitJobOptions) error {
		o.Priority = priority
		return nil
	}
}

// WithStatus filters jobs by status
func WithStatus(s jobs.Status) Option[ListJobsOptions] {
	return func(o *ListJobsOptions) error {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, s)
		}
		o.Status = s
		return nil
	}
}

// WithLimit caps the number of jobs returned
func WithLimit(limit int) Option[ListJobsOptions] {
	return func(o *ListJobsOptions) error {
		if limit < 1 || limit > 1000 {
			return fmt.Errorf("%w: limit must be between 1 and 1000", ErrInvalidRequest)
		}
		o.Limit = limit
		return nil
	}
}

// WithOwner sets the login and credential used to sync the target
func WithOwner(login, accessToken string) Option[RegisterTargetOptions] {
	return func(o *RegisterTargetOptions) error {
		o.Login = login
		o.AccessToken = accessToken
		return nil
	}
}

// WithFullName sets the target from a "namespace/name" string
func WithFullName(fullName string) Option[RegisterTargetOptions] {
	return func(o *RegisterTargetOptions) error {
		namespace, name, err := targets.ParseFullName(fullName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		o.Namespace = namespace
		o.Name = name
		return nil
	}
}

func apply[T SubmitJobOptions | ListJobsOptions | RegisterTargetOptions](opts []Option[T]) (*T, error) {
	o := new(T)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}
