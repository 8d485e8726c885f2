package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/jobs/mocks"
	"github.com/stacklok/issue-auditor/internal/status"
	statusmocks "github.com/stacklok/issue-auditor/internal/status/mocks"
)

const (
	waitFor = 5 * time.Second
	tick    = 5 * time.Millisecond
)

type executorFunc func(ctx context.Context, job *jobs.Job) error

func (f executorFunc) Execute(ctx context.Context, job *jobs.Job) error {
	return f(ctx, job)
}

func succeed(context.Context, *jobs.Job) error { return nil }

// startCoordinator runs c until the test ends
func startCoordinator(t *testing.T, c *jobs.Coordinator) {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(context.Background())
	}()
	t.Cleanup(func() {
		require.NoError(t, c.Stop())
		require.NoError(t, <-errCh)
	})
}

func enqueue(t *testing.T, c *jobs.Coordinator, req jobs.Request) {
	t.Helper()

	queued, err := c.Enqueue(context.Background(), req)
	require.NoError(t, err)
	require.True(t, queued)
}

func waitForStatus(t *testing.T, store jobs.Store, want jobs.Status, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		n, err := store.CountByStatus(context.Background(), want)
		return err == nil && n == count
	}, waitFor, tick)
}

func phaseOf(t *testing.T, tracker status.Tracker, targetID uuid.UUID) status.Phase {
	t.Helper()

	st, err := tracker.GetStatus(context.Background(), targetID)
	require.NoError(t, err)
	return st.Phase
}

func TestEnqueueDeduplicatesEquivalentRequests(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), executorFunc(succeed))
	ctx := context.Background()

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sinceElsewhere := since.In(time.FixedZone("EST", -5*3600))
	req := jobs.Request{TargetID: uuid.New(), OwnerID: uuid.New(), Args: jobs.IssueFetchArgs{Since: &since}}

	queued, err := c.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.True(t, queued)

	req.Args = jobs.IssueFetchArgs{Since: &sinceElsewhere}
	queued, err = c.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.False(t, queued)

	req.Priority = 3
	queued, err = c.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.False(t, queued, "priority is not part of the content key")

	req.Args = jobs.PRFetchArgs{Since: &since}
	queued, err = c.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.True(t, queued)

	all, err := c.List(ctx, jobs.ListFilter{TargetID: req.TargetID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnqueueRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	c := jobs.NewCoordinator(jobs.NewMemoryStore(), status.NewMemoryTracker(), executorFunc(succeed))

	tests := []struct {
		name string
		req  jobs.Request
	}{
		{name: "missing args", req: jobs.Request{TargetID: uuid.New(), OwnerID: uuid.New()}},
		{name: "missing target", req: jobs.Request{OwnerID: uuid.New(), Args: jobs.SentimentArgs{}}},
		{name: "missing owner", req: jobs.Request{TargetID: uuid.New(), Args: jobs.SentimentArgs{}}},
		{name: "priority overflow", req: jobs.Request{TargetID: uuid.New(), OwnerID: uuid.New(), Args: jobs.SentimentArgs{}, Priority: 1 << 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			queued, err := c.Enqueue(context.Background(), tt.req)
			require.ErrorIs(t, err, jobs.ErrInvalidRequest)
			assert.False(t, queued)
		})
	}
}

func TestEnqueuePropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(false, errors.New("connection refused"))

	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), executorFunc(succeed))
	_, err := c.Enqueue(context.Background(), jobs.Request{
		TargetID: uuid.New(),
		OwnerID:  uuid.New(),
		Args:     jobs.SentimentArgs{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCoordinatorNeverExceedsCeiling(t *testing.T) {
	t.Parallel()

	for _, ceiling := range []int{1, 3, jobs.DefaultConcurrency} {
		t.Run(fmt.Sprintf("ceiling_%d", ceiling), func(t *testing.T) {
			t.Parallel()

			store := jobs.NewMemoryStore()
			var running, maxRunning atomic.Int32
			var overLimit atomic.Bool

			exec := executorFunc(func(ctx context.Context, _ *jobs.Job) error {
				n := running.Add(1)
				defer running.Add(-1)
				for {
					m := maxRunning.Load()
					if n <= m || maxRunning.CompareAndSwap(m, n) {
						break
					}
				}
				processing, err := store.CountByStatus(ctx, jobs.StatusProcessing)
				if err != nil || processing > ceiling {
					overLimit.Store(true)
				}
				time.Sleep(10 * time.Millisecond)
				return nil
			})

			c := jobs.NewCoordinator(store, status.NewMemoryTracker(), exec, jobs.WithConcurrency(ceiling))
			for i := range 4 * ceiling {
				enqueue(t, c, jobs.Request{
					TargetID: uuid.New(),
					OwnerID:  uuid.New(),
					Args:     jobs.SingleIssueRefreshArgs{Number: i},
				})
			}

			startCoordinator(t, c)
			waitForStatus(t, store, jobs.StatusCompleted, 4*ceiling)

			assert.LessOrEqual(t, int(maxRunning.Load()), ceiling)
			assert.GreaterOrEqual(t, maxRunning.Load(), int32(1))
			assert.False(t, overLimit.Load())
		})
	}
}

func TestCoordinatorRunsOneJobPerTarget(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	target := uuid.New()
	owner := uuid.New()

	var mu sync.Mutex
	inFlight := make(map[uuid.UUID]int)
	var violated atomic.Bool
	var order []int

	exec := executorFunc(func(_ context.Context, job *jobs.Job) error {
		mu.Lock()
		inFlight[job.TargetID]++
		if inFlight[job.TargetID] > 1 {
			violated.Store(true)
		}
		args, err := jobs.DecodeArgs(job.Kind, job.Args)
		if err == nil {
			order = append(order, args.(jobs.SinglePRRefreshArgs).Number)
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight[job.TargetID]--
		mu.Unlock()
		return nil
	})

	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), exec)
	priorities := []int{3, 1, 2, 1, 0, 3}
	for i, p := range priorities {
		enqueue(t, c, jobs.Request{
			TargetID: target,
			OwnerID:  owner,
			Args:     jobs.SinglePRRefreshArgs{Number: i},
			Priority: p,
		})
	}

	startCoordinator(t, c)
	waitForStatus(t, store, jobs.StatusCompleted, len(priorities))

	assert.False(t, violated.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4, 1, 3, 2, 0, 5}, order)
}

func TestCoordinatorRecordsOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		exec      executorFunc
		wantJob   jobs.Status
		wantPhase status.Phase
		wantError string
	}{
		{
			name:      "success",
			exec:      succeed,
			wantJob:   jobs.StatusCompleted,
			wantPhase: status.PhaseCompleted,
		},
		{
			name: "handler error",
			exec: func(context.Context, *jobs.Job) error {
				return errors.New("upstream returned 502")
			},
			wantJob:   jobs.StatusFailed,
			wantPhase: status.PhaseFailed,
			wantError: "upstream returned 502",
		},
		{
			name: "handler panic",
			exec: func(context.Context, *jobs.Job) error {
				panic("nil map write")
			},
			wantJob:   jobs.StatusFailed,
			wantPhase: status.PhaseFailed,
			wantError: "handler panicked: nil map write",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := jobs.NewMemoryStore()
			tracker := status.NewMemoryTracker()
			c := jobs.NewCoordinator(store, tracker, tt.exec)
			startCoordinator(t, c)

			target := uuid.New()
			enqueue(t, c, jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.SentimentArgs{}})
			waitForStatus(t, store, tt.wantJob, 1)

			list, err := c.List(context.Background(), jobs.ListFilter{TargetID: target})
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, tt.wantError, list[0].Error)
			assert.NotNil(t, list[0].StartedAt)
			assert.NotNil(t, list[0].CompletedAt)

			require.Eventually(t, func() bool {
				return phaseOf(t, tracker, target) == tt.wantPhase
			}, waitFor, tick)

			st, err := tracker.GetStatus(context.Background(), target)
			require.NoError(t, err)
			assert.Nil(t, st.CurrentJobType)
		})
	}
}

func TestCoordinatorKeepsRunningAfterFailure(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	exec := executorFunc(func(_ context.Context, job *jobs.Job) error {
		if job.Kind == jobs.KindIssueFetch {
			panic("boom")
		}
		return nil
	})
	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), exec, jobs.WithConcurrency(1))
	startCoordinator(t, c)

	target := uuid.New()
	owner := uuid.New()
	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: owner, Args: jobs.IssueFetchArgs{}})
	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: owner, Args: jobs.PRFetchArgs{}})

	waitForStatus(t, store, jobs.StatusFailed, 1)
	waitForStatus(t, store, jobs.StatusCompleted, 1)
}

// A single fetch job for one target: in_progress while running, dedup while
// active, failed afterwards and accepted again once finished.
func TestCoordinatorFetchLifecycle(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	tracker := status.NewMemoryTracker()
	release := make(chan struct{})
	var calls atomic.Int32
	exec := executorFunc(func(ctx context.Context, _ *jobs.Job) error {
		if calls.Add(1) == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
			return errors.New("rate limit exceeded")
		}
		return nil
	})

	c := jobs.NewCoordinator(store, tracker, exec)
	startCoordinator(t, c)

	target := uuid.New()
	req := jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.IssueFetchArgs{}}
	enqueue(t, c, req)

	waitForStatus(t, store, jobs.StatusProcessing, 1)
	require.Eventually(t, func() bool {
		return phaseOf(t, tracker, target) == status.PhaseInProgress
	}, waitFor, tick)
	st, err := tracker.GetStatus(context.Background(), target)
	require.NoError(t, err)
	require.NotNil(t, st.CurrentJobType)
	assert.Equal(t, string(jobs.KindIssueFetch), *st.CurrentJobType)

	queued, err := c.Enqueue(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, queued)

	close(release)
	waitForStatus(t, store, jobs.StatusFailed, 1)
	require.Eventually(t, func() bool {
		return phaseOf(t, tracker, target) == status.PhaseFailed
	}, waitFor, tick)

	failed, err := c.List(context.Background(), jobs.ListFilter{Status: jobs.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "rate limit exceeded", failed[0].Error)

	enqueue(t, c, req)
	waitForStatus(t, store, jobs.StatusCompleted, 1)
	require.Eventually(t, func() bool {
		return phaseOf(t, tracker, target) == status.PhaseCompleted
	}, waitFor, tick)
}

func TestCoordinatorRecoversInterruptedJobs(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	tracker := status.NewMemoryTracker()
	target := uuid.New()

	// A previous process claimed the job and died
	crashed := jobs.NewCoordinator(store, tracker, executorFunc(succeed))
	enqueue(t, crashed, jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.IssueFetchArgs{Full: true}})
	claimed, err := store.ClaimNext(context.Background(), time.Now())
	require.NoError(t, err)
	require.NotNil(t, claimed)

	var runs atomic.Int32
	c := jobs.NewCoordinator(store, tracker, executorFunc(func(context.Context, *jobs.Job) error {
		runs.Add(1)
		return nil
	}))
	startCoordinator(t, c)

	waitForStatus(t, store, jobs.StatusCompleted, 1)
	assert.Equal(t, int32(1), runs.Load())

	job, err := c.Get(context.Background(), claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
}

func TestRecoverSweepsExpiredJobs(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	store := jobs.NewMemoryStore()
	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), executorFunc(succeed),
		jobs.WithClock(func() time.Time { return now }),
		jobs.WithRetention(48*time.Hour),
	)
	ctx := context.Background()

	expired := uuid.New()
	kept := uuid.New()
	enqueue(t, c, jobs.Request{TargetID: expired, OwnerID: uuid.New(), Args: jobs.SentimentArgs{}})
	enqueue(t, c, jobs.Request{TargetID: kept, OwnerID: uuid.New(), Args: jobs.SentimentArgs{}})

	for range 2 {
		job, err := store.ClaimNext(ctx, now)
		require.NoError(t, err)
		require.NotNil(t, job)
		finishedAt := now.Add(-time.Hour)
		if job.TargetID == expired {
			finishedAt = now.Add(-72 * time.Hour)
		}
		require.NoError(t, store.Complete(ctx, job.ID, finishedAt))
	}

	require.NoError(t, c.Recover(ctx))

	remaining, err := c.List(ctx, jobs.ListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept, remaining[0].TargetID)
}

func TestStopLeavesInterruptedJobProcessing(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	tracker := status.NewMemoryTracker()
	started := make(chan struct{})
	c := jobs.NewCoordinator(store, tracker, executorFunc(func(ctx context.Context, _ *jobs.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(context.Background())
	}()

	target := uuid.New()
	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.PRFetchArgs{}})

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("job never started")
	}

	require.NoError(t, c.Stop())
	require.NoError(t, <-errCh)

	processing, err := store.CountByStatus(context.Background(), jobs.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, 1, processing)
	assert.Equal(t, status.PhaseInProgress, phaseOf(t, tracker, target))

	next := jobs.NewCoordinator(store, tracker, executorFunc(succeed))
	startCoordinator(t, next)
	waitForStatus(t, store, jobs.StatusCompleted, 1)
}

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), executorFunc(succeed))
	startCoordinator(t, c)

	// A finished job proves the first Start is running
	enqueue(t, c, jobs.Request{TargetID: uuid.New(), OwnerID: uuid.New(), Args: jobs.SentimentArgs{}})
	waitForStatus(t, store, jobs.StatusCompleted, 1)

	require.ErrorIs(t, c.Start(context.Background()), jobs.ErrAlreadyStarted)
}

func TestStartFailsWhenRecoveryFails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().ResetProcessing(gomock.Any()).Return(0, errors.New("relation \"jobs\" does not exist"))

	c := jobs.NewCoordinator(store, status.NewMemoryTracker(), executorFunc(succeed))
	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reset interrupted jobs")
}

func TestCoordinatorDrivesTrackerInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	tracker := statusmocks.NewMockTracker(ctrl)
	exec := mocks.NewMockExecutor(ctrl)
	target := uuid.New()

	gomock.InOrder(
		tracker.EXPECT().SetStatus(gomock.Any(), target, status.PhaseInProgress, string(jobs.KindSinglePRRefresh)).Return(nil),
		exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil),
		tracker.EXPECT().SetStatus(gomock.Any(), target, status.PhaseCompleted, string(jobs.KindSinglePRRefresh)).Return(nil),
	)

	store := jobs.NewMemoryStore()
	c := jobs.NewCoordinator(store, tracker, exec)
	startCoordinator(t, c)

	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.SinglePRRefreshArgs{Number: 12}})
	waitForStatus(t, store, jobs.StatusCompleted, 1)
}

func TestTrackerErrorsDoNotFailJobs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	tracker := statusmocks.NewMockTracker(ctrl)
	tracker.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(status.ErrTargetNotFound).Times(2)

	store := jobs.NewMemoryStore()
	c := jobs.NewCoordinator(store, tracker, executorFunc(succeed))
	startCoordinator(t, c)

	enqueue(t, c, jobs.Request{TargetID: uuid.New(), OwnerID: uuid.New(), Args: jobs.SentimentArgs{Limit: 5}})
	waitForStatus(t, store, jobs.StatusCompleted, 1)
}

// slowCompletionTracker holds the first completed write until the test has
// had a chance to enqueue more work for the same target
type slowCompletionTracker struct {
	status.Tracker
	delay   time.Duration
	entered chan struct{}
	left    chan struct{}
	once    sync.Once
}

func (s *slowCompletionTracker) SetStatus(ctx context.Context, targetID uuid.UUID, phase status.Phase, jobType string) error {
	first := false
	if phase == status.PhaseCompleted {
		s.once.Do(func() { first = true })
	}
	if !first {
		return s.Tracker.SetStatus(ctx, targetID, phase, jobType)
	}

	close(s.entered)
	defer close(s.left)
	time.Sleep(s.delay)
	return s.Tracker.SetStatus(ctx, targetID, phase, jobType)
}

func TestTerminalStatusNeverOverwritesNextJob(t *testing.T) {
	t.Parallel()

	store := jobs.NewMemoryStore()
	tracker := &slowCompletionTracker{
		Tracker: status.NewMemoryTracker(),
		delay:   200 * time.Millisecond,
		entered: make(chan struct{}),
		left:    make(chan struct{}),
	}
	target := uuid.New()
	owner := uuid.New()

	started := make(chan struct{})
	release := make(chan struct{})
	exec := executorFunc(func(ctx context.Context, job *jobs.Job) error {
		if job.Kind != jobs.KindSentiment {
			return nil
		}
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	c := jobs.NewCoordinator(store, tracker, exec)
	startCoordinator(t, c)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: owner, Args: jobs.IssueFetchArgs{Full: true}})
	select {
	case <-tracker.entered:
	case <-time.After(waitFor):
		t.Fatal("first job never reached its completed status write")
	}

	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: owner, Args: jobs.SentimentArgs{Limit: 10}})
	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("second job never started")
	}

	// The second job may only have been claimed after the first job's write
	select {
	case <-tracker.left:
	default:
		t.Fatal("second job was claimed while the first job's status write was in flight")
	}
	assert.Equal(t, status.PhaseInProgress, phaseOf(t, tracker, target))

	close(release)
	waitForStatus(t, store, jobs.StatusCompleted, 2)
	assert.Equal(t, status.PhaseCompleted, phaseOf(t, tracker, target))
}

// flakyStore fails the first claims and terminal writes it sees
type flakyStore struct {
	jobs.Store
	claimFailures    atomic.Int32
	completeFailures atomic.Int32
}

func (f *flakyStore) ClaimNext(ctx context.Context, startedAt time.Time) (*jobs.Job, error) {
	if f.claimFailures.Add(-1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return f.Store.ClaimNext(ctx, startedAt)
}

func (f *flakyStore) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	if f.completeFailures.Add(-1) >= 0 {
		return errors.New("connection reset by peer")
	}
	return f.Store.Complete(ctx, id, completedAt)
}

func TestCoordinatorRecoversFromTransientStoreErrors(t *testing.T) {
	t.Parallel()

	store := &flakyStore{Store: jobs.NewMemoryStore()}
	store.claimFailures.Store(2)
	store.completeFailures.Store(1)

	tracker := status.NewMemoryTracker()
	c := jobs.NewCoordinator(store, tracker, executorFunc(succeed), jobs.WithRetryDelay(20*time.Millisecond))

	target := uuid.New()
	enqueue(t, c, jobs.Request{TargetID: target, OwnerID: uuid.New(), Args: jobs.SinglePRRefreshArgs{Number: 3}})
	startCoordinator(t, c)

	// Nothing else triggers dispatch; the failed claims must reschedule it
	waitForStatus(t, store, jobs.StatusCompleted, 1)
	assert.Equal(t, status.PhaseCompleted, phaseOf(t, tracker, target))

	n, err := store.CountByStatus(context.Background(), jobs.StatusProcessing)
	require.NoError(t, err)
	assert.Zero(t, n)
}
