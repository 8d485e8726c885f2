package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/issue-auditor/internal/otel"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/telemetry"
)

const (
	// DefaultConcurrency is the default ceiling on processing jobs
	DefaultConcurrency = 5

	// DefaultRetention is how long finished jobs survive the startup sweep
	DefaultRetention = 7 * 24 * time.Hour

	// DefaultRetryDelay is how long a dispatch pass ended by a store error
	// waits before triggering the next one
	DefaultRetryDelay = time.Second

	// finishRetryWindow bounds the retries of a job's terminal write
	finishRetryWindow = 30 * time.Second

	outcomeCompleted   = "completed"
	outcomeFailed      = "failed"
	outcomeInterrupted = "interrupted"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("coordinator already started")

	// ErrInvalidRequest is returned by Enqueue for malformed requests
	ErrInvalidRequest = errors.New("invalid job request")
)

//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks -source=coordinator.go Executor

// Executor runs a claimed job to completion. A returned error fails the job.
type Executor interface {
	Execute(ctx context.Context, job *Job) error
}

// Coordinator admits, schedules and executes jobs
type Coordinator struct {
	store    Store
	tracker  status.Tracker
	executor Executor

	ceiling   int
	retention time.Duration
	retry     time.Duration
	now       func() time.Time
	metrics   *telemetry.JobMetrics
	tracer    trace.Tracer

	// trigger holds at most one pending dispatch request
	trigger chan struct{}
	work    chan *Job

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*Coordinator)

// WithConcurrency sets the ceiling on processing jobs and the worker pool size
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.ceiling = n
		}
	}
}

// WithRetention sets how long finished jobs are kept
func WithRetention(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithRetryDelay sets how long to wait before re-dispatching after a store error
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.retry = d
		}
	}
}

// WithJobMetrics sets the job metrics for the coordinator
func WithJobMetrics(metrics *telemetry.JobMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// WithTracer sets the tracer used for job execution spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator. Nothing runs until Start is called,
// but Enqueue may be used before that.
func NewCoordinator(store Store, tracker status.Tracker, executor Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		tracker:   tracker,
		executor:  executor,
		ceiling:   DefaultConcurrency,
		retention: DefaultRetention,
		retry:     DefaultRetryDelay,
		now:       func() time.Time { return time.Now().UTC() },
		trigger:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	// At most ceiling jobs are claimed at a time, so hand-off never blocks
	c.work = make(chan *Job, c.ceiling)
	return c
}

// Enqueue persists a pending job for req unless an equivalent job is pending
// or processing. It reports whether a job was created.
func (c *Coordinator) Enqueue(ctx context.Context, req Request) (bool, error) {
	if req.Args == nil {
		return false, fmt.Errorf("%w: args are required", ErrInvalidRequest)
	}
	if req.TargetID == uuid.Nil {
		return false, fmt.Errorf("%w: target id is required", ErrInvalidRequest)
	}
	if req.OwnerID == uuid.Nil {
		return false, fmt.Errorf("%w: owner id is required", ErrInvalidRequest)
	}
	if req.Priority < math.MinInt32 || req.Priority > math.MaxInt32 {
		return false, fmt.Errorf("%w: priority %d out of range", ErrInvalidRequest, req.Priority)
	}

	kind := req.Args.Kind()
	raw, err := EncodeArgs(req.Args)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	job := &Job{
		ID:        uuid.New(),
		Kind:      kind,
		TargetID:  req.TargetID,
		OwnerID:   req.OwnerID,
		Args:      raw,
		DedupKey:  ContentKey(kind, req.TargetID, raw),
		Status:    StatusPending,
		Priority:  req.Priority,
		CreatedAt: c.now(),
	}

	queued, err := c.store.Insert(ctx, job)
	if err != nil {
		return false, fmt.Errorf("failed to persist job: %w", err)
	}
	c.metrics.RecordEnqueue(ctx, string(kind), !queued)

	if !queued {
		slog.Debug("Equivalent job already active, skipping enqueue",
			"kind", kind,
			"target_id", req.TargetID)
		return false, nil
	}

	slog.Info("Job enqueued",
		"job_id", job.ID,
		"kind", kind,
		"target_id", req.TargetID,
		"priority", req.Priority)

	c.Trigger()
	return true, nil
}

// Get returns a job by id
func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return c.store.Get(ctx, id)
}

// List returns jobs matching filter, newest first
func (c *Coordinator) List(ctx context.Context, filter ListFilter) ([]*Job, error) {
	return c.store.List(ctx, filter)
}

// Trigger requests a dispatch pass. It never blocks; a request made while one
// is already queued is dropped because the queued pass will see its effects.
func (c *Coordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Recover returns jobs left processing by a previous run to pending, deletes
// finished jobs older than the retention window and triggers dispatch if any
// job is pending.
func (c *Coordinator) Recover(ctx context.Context) error {
	reset, err := c.store.ResetProcessing(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted jobs: %w", err)
	}
	if reset > 0 {
		slog.Warn("Reset interrupted jobs to pending", "count", reset)
	}

	cutoff := c.now().Add(-c.retention)
	deleted, err := c.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired jobs: %w", err)
	}

	pending, err := c.store.CountByStatus(ctx, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to count pending jobs: %w", err)
	}

	slog.Info("Job recovery complete",
		"reset", reset,
		"expired_deleted", deleted,
		"pending", pending)

	if pending > 0 {
		c.Trigger()
	}
	return nil
}

// Start recovers state, starts the worker pool and runs the dispatch loop.
// It blocks until ctx is cancelled or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		close(c.done)
		slog.Info("Job coordinator stopped")
	}()

	if err := c.Recover(runCtx); err != nil {
		return err
	}

	slog.Info("Starting job coordinator",
		"concurrency", c.ceiling,
		"retention", c.retention)

	var workers sync.WaitGroup
	for range c.ceiling {
		workers.Add(1)
		go func() {
			defer workers.Done()
			c.worker(runCtx)
		}()
	}

	for {
		select {
		case <-runCtx.Done():
			workers.Wait()
			return nil
		case <-c.trigger:
			c.dispatch(runCtx)
		}
	}
}

// Stop cancels the dispatch loop and waits for workers to return. Jobs whose
// handler is interrupted stay processing and are recovered on the next Start.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	slog.Info("Stopping job coordinator")
	cancel()
	<-c.done
	return nil
}

// dispatch claims jobs until capacity is exhausted or nothing is eligible.
// Persistence errors end the pass and schedule another one after the retry delay.
func (c *Coordinator) dispatch(ctx context.Context) {
	for ctx.Err() == nil {
		processing, err := c.store.CountByStatus(ctx, StatusProcessing)
		if err != nil {
			slog.Error("Failed to count processing jobs", "error", err)
			c.retryLater(ctx)
			return
		}
		if processing >= c.ceiling {
			return
		}

		job, err := c.store.ClaimNext(ctx, c.now())
		if err != nil {
			slog.Error("Failed to claim next job", "error", err)
			c.retryLater(ctx)
			return
		}
		if job == nil {
			return
		}

		c.setTargetStatus(ctx, job, status.PhaseInProgress)

		slog.Debug("Dispatching job",
			"job_id", job.ID,
			"kind", job.Kind,
			"target_id", job.TargetID,
			"processing", processing+1)

		select {
		case c.work <- job:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) retryLater(ctx context.Context) {
	time.AfterFunc(c.retry, func() {
		if ctx.Err() == nil {
			c.Trigger()
		}
	})
}

func (c *Coordinator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-c.work:
			c.execute(ctx, job)
		}
	}
}

func (c *Coordinator) execute(ctx context.Context, job *Job) {
	kind := string(job.Kind)
	startTime := time.Now()
	c.metrics.JobStarted(ctx, kind)

	ctx, span := otel.StartSpan(ctx, c.tracer, "jobs.execute",
		trace.WithAttributes(
			otel.AttrJobID.String(job.ID.String()),
			otel.AttrJobKind.String(kind),
			otel.AttrTargetID.String(job.TargetID.String()),
		),
	)
	defer span.End()

	err := c.runExecutor(ctx, job)

	// Final bookkeeping must survive Stop cancelling ctx
	persistCtx := context.WithoutCancel(ctx)

	if err != nil && ctx.Err() != nil {
		slog.Warn("Job interrupted by shutdown, leaving it for recovery",
			"job_id", job.ID,
			"kind", kind,
			"error", err)
		c.metrics.JobFinished(persistCtx, kind, outcomeInterrupted, time.Since(startTime))
		return
	}

	outcome := outcomeCompleted
	if err != nil {
		outcome = outcomeFailed
		otel.RecordError(span, err)
		slog.Error("Job failed",
			"job_id", job.ID,
			"kind", kind,
			"target_id", job.TargetID,
			"error", err)

		// The target status goes first: the job row stays processing, and the
		// target unclaimable, until the terminal phase is written
		c.setTargetStatus(persistCtx, job, status.PhaseFailed)
		reason := err.Error()
		c.finish(persistCtx, job, "failure", func(ctx context.Context) error {
			return c.store.Fail(ctx, job.ID, c.now(), reason)
		})
	} else {
		slog.Info("Job completed",
			"job_id", job.ID,
			"kind", kind,
			"target_id", job.TargetID,
			"duration", time.Since(startTime))

		c.setTargetStatus(persistCtx, job, status.PhaseCompleted)
		c.finish(persistCtx, job, "completion", func(ctx context.Context) error {
			return c.store.Complete(ctx, job.ID, c.now())
		})
	}

	c.metrics.JobFinished(persistCtx, kind, outcome, time.Since(startTime))
	c.Trigger()
}

// finish writes a job's terminal row, retrying transient store errors. A job
// that still cannot be finished stays processing until the next startup recovery.
func (c *Coordinator) finish(ctx context.Context, job *Job, what string, write func(context.Context) error) {
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			err := write(ctx)
			if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotProcessing) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(finishRetryWindow),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Retrying job "+what+" write", "job_id", job.ID, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		slog.Error("Failed to record job "+what, "job_id", job.ID, "error", err)
	}
}

// runExecutor converts a panicking handler into a job failure
func (c *Coordinator) runExecutor(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return c.executor.Execute(ctx, job)
}

func (c *Coordinator) setTargetStatus(ctx context.Context, job *Job, phase status.Phase) {
	if err := c.tracker.SetStatus(ctx, job.TargetID, phase, string(job.Kind)); err != nil {
		slog.Error("Failed to update target status",
			"target_id", job.TargetID,
			"phase", phase,
			"error", err)
	}
}
