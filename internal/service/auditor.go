package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// Enqueuer is the part of the coordinator the service submits to
type Enqueuer interface {
	Enqueue(ctx context.Context, req jobs.Request) (bool, error)
}

// ReadinessCheck reports whether a backing store is reachable
type ReadinessCheck func(ctx context.Context) error

type auditorService struct {
	enqueuer  Enqueuer
	jobs      jobs.Store
	tracker   status.Tracker
	directory targets.Directory
	ready     ReadinessCheck
}

// New creates the Service. ready may be nil when nothing needs probing.
func New(
	enqueuer Enqueuer,
	jobStore jobs.Store,
	tracker status.Tracker,
	directory targets.Directory,
	ready ReadinessCheck,
) Service {
	return &auditorService{
		enqueuer:  enqueuer,
		jobs:      jobStore,
		tracker:   tracker,
		directory: directory,
		ready:     ready,
	}
}

func (s *auditorService) CheckReadiness(ctx context.Context) error {
	if s.ready == nil {
		return nil
	}
	return s.ready(ctx)
}

func (s *auditorService) SubmitJob(ctx context.Context, opts ...Option[SubmitJobOptions]) (bool, error) {
	o, err := apply(opts)
	if err != nil {
		return false, err
	}
	if o.TargetID == uuid.Nil {
		return false, fmt.Errorf("%w: target id is required", ErrInvalidRequest)
	}
	if o.Kind == "" {
		return false, fmt.Errorf("%w: job type is required", ErrInvalidRequest)
	}

	args, err := jobs.DecodeArgs(o.Kind, o.Args)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	target, err := s.getTarget(ctx, o.TargetID)
	if err != nil {
		return false, err
	}

	queued, err := s.enqueuer.Enqueue(ctx, jobs.Request{
		TargetID: target.ID,
		OwnerID:  target.OwnerID,
		Args:     args,
		Priority: o.Priority,
	})
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidRequest) {
			return false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return false, err
	}
	return queued, nil
}

func (s *auditorService) GetJob(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, jobs.ErrJobNotFound) {
		return nil, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	return job, err
}

func (s *auditorService) ListJobs(ctx context.Context, opts ...Option[ListJobsOptions]) ([]*jobs.Job, error) {
	o, err := apply(opts)
	if err != nil {
		return nil, err
	}
	return s.jobs.List(ctx, jobs.ListFilter{
		Status:   o.Status,
		TargetID: o.TargetID,
		Limit:    o.Limit,
	})
}

// GetTargetStatus checks the directory first so that unknown targets are not
// reported as not_started
func (s *auditorService) GetTargetStatus(ctx context.Context, targetID uuid.UUID) (*status.TargetStatus, error) {
	if _, err := s.getTarget(ctx, targetID); err != nil {
		return nil, err
	}

	st, err := s.tracker.GetStatus(ctx, targetID)
	if errors.Is(err, status.ErrTargetNotFound) {
		return nil, fmt.Errorf("target %s: %w", targetID, ErrTargetNotFound)
	}
	return st, err
}

func (s *auditorService) RegisterTarget(ctx context.Context, opts ...Option[RegisterTargetOptions]) (*targets.Target, error) {
	o, err := apply(opts)
	if err != nil {
		return nil, err
	}

	owner, err := s.directory.RegisterOwner(ctx, o.Login, o.AccessToken)
	if err != nil {
		if errors.Is(err, targets.ErrInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("failed to register owner: %w", err)
	}

	target, err := s.directory.RegisterTarget(ctx, owner.ID, o.Namespace, o.Name)
	if err != nil {
		if errors.Is(err, targets.ErrInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("failed to register target: %w", err)
	}

	slog.Info("Target registered",
		"target_id", target.ID,
		"target", target.FullName(),
		"owner", owner.Login)
	return target, nil
}

func (s *auditorService) ListTargets(ctx context.Context) ([]*targets.Target, error) {
	return s.directory.ListTargets(ctx)
}

func (s *auditorService) getTarget(ctx context.Context, id uuid.UUID) (*targets.Target, error) {
	target, err := s.directory.GetTarget(ctx, id)
	if errors.Is(err, targets.ErrTargetNotFound) {
		return nil, fmt.Errorf("target %s: %w", id, ErrTargetNotFound)
	}
	return target, err
}
