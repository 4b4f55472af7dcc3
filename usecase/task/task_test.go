package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/metrics"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase/analytics"
)

var clock = time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string
	log   *[]string

	list     func(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error)
	create   func(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	update   func(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error)
	complete func(ctx context.Context, id string) (*domain.Task, error)
	del      func(ctx context.Context, id string) error
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.log != nil {
		*f.log = append(*f.log, "gateway:"+call)
	}
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	f.record("list")
	if f.list == nil {
		return nil, nil
	}
	return f.list(ctx, filter)
}

func (f *fakeGateway) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	f.record("create")
	return f.create(ctx, draft)
}

func (f *fakeGateway) Update(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error) {
	f.record("update")
	return f.update(ctx, id, changes)
}

func (f *fakeGateway) Delete(ctx context.Context, id string) error {
	f.record("delete")
	return f.del(ctx, id)
}

func (f *fakeGateway) Complete(ctx context.Context, id string) (*domain.Task, error) {
	f.record("complete")
	return f.complete(ctx, id)
}

type recordingTracker struct {
	mu        sync.Mutex
	log       *[]string
	created   []string
	updated   map[string][]string
	deleted   []string
	completed []domain.Completion
}

func newRecordingTracker(log *[]string) *recordingTracker {
	return &recordingTracker{log: log, updated: make(map[string][]string)}
}

func (r *recordingTracker) TrackCreated(task domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, task.ID)
}

func (r *recordingTracker) TrackUpdated(taskID string, fields []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[taskID] = fields
}

func (r *recordingTracker) TrackDeleted(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, taskID)
	if r.log != nil {
		*r.log = append(*r.log, "tracker:deleted")
	}
}

func (r *recordingTracker) TrackCompleted(c domain.Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, c)
}

func seed(tasks ...domain.Task) func(context.Context, repository.TaskFilter) ([]domain.Task, error) {
	return func(context.Context, repository.TaskFilter) ([]domain.Task, error) {
		return domain.CloneTasks(tasks), nil
	}
}

func newStore(t *testing.T, gw *fakeGateway, tracker *recordingTracker, stats *analytics.UseCase, tasks ...domain.Task) *UseCase {
	t.Helper()
	gw.list = seed(tasks...)
	var uc *UseCase
	if stats != nil {
		uc = New(gw, nil, tracker, stats, nil)
	} else {
		uc = New(gw, nil, tracker, nil, nil)
	}
	uc.WithClock(func() time.Time { return clock })
	require.NoError(t, uc.Load(context.Background()))
	return uc
}

func sample(id string, p domain.Priority) domain.Task {
	return domain.Task{ID: id, Title: "task " + id, Priority: p, Status: domain.StatusTodo, CreatedAt: clock}
}

func TestLoadReplacesCollection(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1), sample("b", 2))

	assert.Len(t, uc.Tasks(), 2)
	assert.False(t, uc.Loading())
	assert.NoError(t, uc.Err())

	gw.list = func(context.Context, repository.TaskFilter) ([]domain.Task, error) {
		return nil, domain.ErrNoResponse
	}
	err := uc.Load(context.Background())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, err, uc.Err())
	assert.Len(t, uc.Tasks(), 2)
}

func TestLoadSendsServerFilter(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil)

	high := domain.PriorityHigh
	uc.SetFilter(domain.Filter{Priority: &high})
	uc.SetSearch("report")

	var got repository.TaskFilter
	gw.list = func(_ context.Context, f repository.TaskFilter) ([]domain.Task, error) {
		got = f
		return []domain.Task{}, nil
	}
	require.NoError(t, uc.Load(context.Background()))
	require.NotNil(t, got.Priority)
	assert.Equal(t, high, *got.Priority)
	assert.Nil(t, got.Status)
	assert.Equal(t, "report", uc.Criteria().Filter.Search)
}

func TestCreateAppendsServerRecord(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))

	gw.create = func(_ context.Context, d domain.TaskDraft) (*domain.Task, error) {
		return &domain.Task{ID: "srv-1", Title: d.Title, Priority: d.Priority, Status: domain.StatusTodo}, nil
	}
	created, err := uc.Create(context.Background(), domain.TaskDraft{Title: " new "})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, "new", created.Title)
	assert.Equal(t, domain.PriorityMedium, created.Priority)

	tasks := uc.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "srv-1", tasks[1].ID)
	assert.Equal(t, []string{"srv-1"}, tracker.created)
}

func TestCreateFailureLeavesStateUnchanged(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))

	gw.create = func(context.Context, domain.TaskDraft) (*domain.Task, error) {
		return nil, domain.NewError(domain.ErrCodeRejected, "quota exceeded")
	}
	_, err := uc.Create(context.Background(), domain.TaskDraft{Title: "new"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeRejected))
	assert.Len(t, uc.Tasks(), 1)
	assert.Empty(t, tracker.created)
}

func TestCreateInvalidDraftIssuesNoRequest(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil)

	_, err := uc.Create(context.Background(), domain.TaskDraft{Title: "  "})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Equal(t, []string{"list"}, gw.Calls())
}

func TestUpdateMergesServerRecord(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))

	gw.update = func(_ context.Context, id string, _ domain.TaskChanges) (*domain.Task, error) {
		// the service omits the title and normalizes the category
		return &domain.Task{ID: id, Priority: domain.PriorityHigh, Category: "work", Status: domain.StatusTodo}, nil
	}
	updated, err := uc.Update(context.Background(), "a", domain.TaskChanges{
		Priority: domain.PriorityPtr(domain.PriorityHigh),
		Category: domain.StringPtr("Work"),
	})
	require.NoError(t, err)
	assert.Equal(t, "task a", updated.Title)
	assert.Equal(t, "work", updated.Category)

	got, err := uc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "work", got.Category)
	assert.Equal(t, clock, got.CreatedAt)
	assert.Equal(t, []string{"category", "priority"}, tracker.updated["a"])
	assert.Empty(t, tracker.completed)
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))
	before, _ := uc.Get("a")
	rollbacks := testutil.ToFloat64(metrics.Rollbacks.WithLabelValues("update"))

	var optimistic string
	gw.update = func(context.Context, string, domain.TaskChanges) (*domain.Task, error) {
		got, _ := uc.Get("a")
		optimistic = got.Title
		return nil, domain.NewError(domain.ErrCodeInternal, "boom")
	}
	_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("renamed")})
	require.Error(t, err)

	assert.Equal(t, "renamed", optimistic)
	after, _ := uc.Get("a")
	assert.Equal(t, before, after)
	assert.Empty(t, tracker.updated)
	assert.Equal(t, rollbacks+1, testutil.ToFloat64(metrics.Rollbacks.WithLabelValues("update")))
}

func TestUpdateUnknownTask(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil)

	_, err := uc.Update(context.Background(), "missing", domain.TaskChanges{Title: domain.StringPtr("x")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Equal(t, []string{"list"}, gw.Calls())
}

func TestUpdateCompletionAwardsXPOnTransitionOnly(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	stats := analytics.New(nil, nil)
	uc := newStore(t, gw, tracker, stats, sample("a", domain.PriorityHigh))

	gw.update = func(_ context.Context, id string, c domain.TaskChanges) (*domain.Task, error) {
		got, _ := uc.Get(id)
		return got, nil
	}
	_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Status: domain.StatusPtr(domain.StatusCompleted)})
	require.NoError(t, err)
	_, err = uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("still done")})
	require.NoError(t, err)

	require.Len(t, tracker.completed, 1)
	assert.Equal(t, 30, tracker.completed[0].XP)
	assert.Equal(t, 30, stats.Snapshot().UserStats.TotalXP)
}

func TestStaleUpdateResponseIsDiscarded(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))

	started := make(chan struct{})
	release := make(chan struct{})
	gw.update = func(_ context.Context, id string, c domain.TaskChanges) (*domain.Task, error) {
		if *c.Title == "first" {
			close(started)
			<-release
		}
		return &domain.Task{ID: id, Title: *c.Title, Priority: 1, Status: domain.StatusTodo}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("first")})
		done <- err
	}()
	<-started

	_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("second")})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	got, _ := uc.Get("a")
	assert.Equal(t, "second", got.Title)
}

func TestSupersededFailureDoesNotRollBack(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))

	started := make(chan struct{})
	release := make(chan struct{})
	gw.update = func(_ context.Context, id string, c domain.TaskChanges) (*domain.Task, error) {
		if *c.Title == "first" {
			close(started)
			<-release
			return nil, domain.ErrNoResponse
		}
		return &domain.Task{ID: id, Title: *c.Title, Priority: 1, Status: domain.StatusTodo}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("first")})
		done <- err
	}()
	<-started

	_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("second")})
	require.NoError(t, err)

	close(release)
	assert.Error(t, <-done)

	got, _ := uc.Get("a")
	assert.Equal(t, "second", got.Title)
}

func TestLoadInvalidatesInFlightMutation(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))

	started := make(chan struct{})
	release := make(chan struct{})
	gw.update = func(_ context.Context, id string, c domain.TaskChanges) (*domain.Task, error) {
		close(started)
		<-release
		return &domain.Task{ID: id, Title: *c.Title, Status: domain.StatusTodo}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Title: domain.StringPtr("local")})
		done <- err
	}()
	<-started

	fresh := sample("a", 1)
	fresh.Title = "from load"
	gw.list = seed(fresh)
	require.NoError(t, uc.Load(context.Background()))

	close(release)
	require.NoError(t, <-done)

	got, _ := uc.Get("a")
	assert.Equal(t, "from load", got.Title)
}

func TestToggleCompleteAwardsXP(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	stats := analytics.New(nil, nil)
	uc := newStore(t, gw, tracker, stats, sample("high", domain.PriorityHigh), sample("low", domain.PriorityLow))

	gw.complete = func(_ context.Context, id string) (*domain.Task, error) {
		return &domain.Task{ID: id}, nil
	}

	got, err := uc.ToggleComplete(context.Background(), "high")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, clock, *got.CompletedAt)

	_, err = uc.ToggleComplete(context.Background(), "low")
	require.NoError(t, err)

	snap := stats.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 40, snap.UserStats.TotalXP)
	assert.Equal(t, 2, snap.UserStats.TotalTasksCompleted)
	assert.Equal(t, 2, snap.WeeklyMetrics.TasksCompleted)

	require.Len(t, tracker.completed, 2)
	assert.Equal(t, "high", tracker.completed[0].TaskID)
	assert.Equal(t, 30, tracker.completed[0].XP)
	assert.Equal(t, 10, tracker.completed[1].XP)
}

func TestDoubleToggleRestoresStateAndAwardsOnce(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	stats := analytics.New(nil, nil)
	uc := newStore(t, gw, tracker, stats, sample("a", domain.PriorityMedium))

	// the service answers with a stale flag; the local flip stays authoritative
	gw.complete = func(_ context.Context, id string) (*domain.Task, error) {
		return &domain.Task{ID: id, Completed: true, Status: domain.StatusCompleted}, nil
	}

	_, err := uc.ToggleComplete(context.Background(), "a")
	require.NoError(t, err)
	got, err := uc.ToggleComplete(context.Background(), "a")
	require.NoError(t, err)

	assert.False(t, got.Completed)
	assert.Equal(t, domain.StatusTodo, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Len(t, tracker.completed, 1)
	assert.Equal(t, 20, stats.Snapshot().UserStats.TotalXP)
}

func TestToggleFailureRollsBack(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))

	gw.complete = func(context.Context, string) (*domain.Task, error) {
		return nil, domain.ErrNoResponse
	}
	_, err := uc.ToggleComplete(context.Background(), "a")
	require.Error(t, err)

	got, _ := uc.Get("a")
	assert.False(t, got.Completed)
	assert.Equal(t, domain.StatusTodo, got.Status)
	assert.Empty(t, tracker.completed)
}

func TestFailedToggleUnderNewerToggleFollowsServer(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))

	var (
		mu     sync.Mutex
		calls  int
		server bool
	)
	started := make(chan struct{})
	release := make(chan struct{})
	gw.complete = func(_ context.Context, id string) (*domain.Task, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return nil, domain.ErrNoResponse
		}
		mu.Lock()
		server = !server
		mu.Unlock()
		return &domain.Task{ID: id}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := uc.ToggleComplete(context.Background(), "a")
		done <- err
	}()
	<-started

	_, err := uc.ToggleComplete(context.Background(), "a")
	require.NoError(t, err)
	close(release)
	require.Error(t, <-done)

	got, err := uc.Get("a")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, server)
	assert.Equal(t, server, got.Completed)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, clock, *got.CompletedAt)
}

func TestFailedToggleUnderNewerUpdateKeepsUpdate(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))

	started := make(chan struct{})
	release := make(chan struct{})
	gw.complete = func(context.Context, string) (*domain.Task, error) {
		close(started)
		<-release
		return nil, domain.ErrNoResponse
	}
	gw.update = func(_ context.Context, id string, _ domain.TaskChanges) (*domain.Task, error) {
		return &domain.Task{ID: id, Title: "task a", Completed: true, Status: domain.StatusCompleted}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := uc.ToggleComplete(context.Background(), "a")
		done <- err
	}()
	<-started

	_, err := uc.Update(context.Background(), "a", domain.TaskChanges{Completed: domain.BoolPtr(true)})
	require.NoError(t, err)
	close(release)
	require.Error(t, <-done)

	got, err := uc.Get("a")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestDeleteTracksBeforeRequest(t *testing.T) {
	var log []string
	gw := &fakeGateway{log: &log}
	tracker := newRecordingTracker(&log)
	uc := newStore(t, gw, tracker, nil, sample("a", 1), sample("b", 1))
	log = nil

	gw.del = func(context.Context, string) error { return nil }
	require.NoError(t, uc.Delete(context.Background(), "a"))

	assert.Equal(t, []string{"tracker:deleted", "gateway:delete"}, log)
	tasks := uc.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].ID)
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	gw := &fakeGateway{}
	tracker := newRecordingTracker(nil)
	uc := newStore(t, gw, tracker, nil, sample("a", 1))

	gw.del = func(context.Context, string) error { return domain.ErrNoResponse }
	err := uc.Delete(context.Background(), "a")
	require.Error(t, err)

	assert.Len(t, uc.Tasks(), 1)
	assert.Equal(t, []string{"a"}, tracker.deleted)
}

func TestMoveTask(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))
	gw.update = func(_ context.Context, id string, c domain.TaskChanges) (*domain.Task, error) {
		return &domain.Task{ID: id, Status: *c.Status, Completed: *c.Status == domain.StatusCompleted}, nil
	}

	got, err := uc.MoveTask(context.Background(), "a", domain.StatusTodo)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, got.Status)
	assert.Equal(t, []string{"list"}, gw.Calls())

	got, err = uc.MoveTask(context.Background(), "a", domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	assert.Equal(t, []string{"list", "update"}, gw.Calls())

	_, err = uc.MoveTask(context.Background(), "a", domain.Status("archived"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.MoveTask(context.Background(), "missing", domain.StatusTodo)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

type fakeSchedule struct {
	err error
}

func (f fakeSchedule) Generate(context.Context, domain.ScheduleRequest) (domain.Schedule, error) {
	return domain.Schedule(`{"slots":[]}`), f.err
}

func (f fakeSchedule) Reschedule(context.Context, string, time.Time, domain.Schedule) (domain.Schedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return domain.Schedule(`{"moved":true}`), nil
}

func TestRescheduleTaskSetsDueDateOnSuccess(t *testing.T) {
	gw := &fakeGateway{list: seed(sample("a", 1))}
	uc := New(gw, fakeSchedule{}, nil, nil, nil)
	require.NoError(t, uc.Load(context.Background()))

	at := clock.Add(48 * time.Hour)
	out, err := uc.RescheduleTask(context.Background(), "a", at, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"moved":true}`, string(out))

	got, _ := uc.Get("a")
	require.NotNil(t, got.DueDate)
	assert.Equal(t, at, *got.DueDate)

	failing := New(gw, fakeSchedule{err: domain.ErrNoResponse}, nil, nil, nil)
	require.NoError(t, failing.Load(context.Background()))
	_, err = failing.RescheduleTask(context.Background(), "a", at, nil)
	require.Error(t, err)
	got, _ = failing.Get("a")
	assert.Nil(t, got.DueDate)
}

func TestCriteriaAndView(t *testing.T) {
	gw := &fakeGateway{}
	done := sample("b", 2)
	done.SetCompleted(true)
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1), done)

	uc.SetTab(domain.TabActive)
	uc.SetSort(domain.SortPriority)
	res := uc.View()
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "a", res.Tasks[0].ID)
	assert.Equal(t, domain.Counts{All: 2, Active: 1, Completed: 1}, res.Counts)

	low := domain.PriorityLow
	uc.SetSearch("task")
	uc.SetFilter(domain.Filter{Priority: &low})
	uc.ResetFilters()
	c := uc.Criteria()
	assert.Equal(t, domain.Filter{}, c.Filter)
	assert.Equal(t, domain.TabActive, c.Tab)
	assert.Equal(t, domain.SortPriority, c.Sort)

	all := uc.List(domain.Criteria{Tab: domain.TabAll, Sort: domain.SortPriority})
	assert.Equal(t, "b", all[0].ID)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil)

	var calls int
	unsubscribe := uc.Subscribe(func() { calls++ })
	uc.SetTab(domain.TabCompleted)
	assert.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe()
	uc.SetTab(domain.TabAll)
	assert.Equal(t, 1, calls)
}

func TestResetClearsState(t *testing.T) {
	gw := &fakeGateway{}
	uc := newStore(t, gw, newRecordingTracker(nil), nil, sample("a", 1))
	uc.SetTab(domain.TabCompleted)
	uc.SetSearch("x")

	uc.Reset()
	assert.Empty(t, uc.Tasks())
	assert.Equal(t, domain.DefaultCriteria(), uc.Criteria())
	assert.NoError(t, uc.Err())
}
