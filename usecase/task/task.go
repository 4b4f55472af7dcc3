package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/metrics"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
	"github.com/fastygo/taskpulse/usecase/view"
)

// UseCase is the client-side task store. It owns the canonical task collection and the
// filter, tab and sort criteria, applies mutations optimistically and reconciles them with
// the service. The lock is never held across a remote call.
type UseCase struct {
	tasks    repository.TaskGateway
	schedule repository.ScheduleGateway
	tracker  usecase.EventTracker
	observer usecase.CompletionObserver
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	items     []domain.Task
	criteria  domain.Criteria
	loading   bool
	err       error
	seq       uint64
	versions  map[string]uint64
	loadSeq   uint64
	listeners map[int]usecase.Listener
	nextID    int

	// settled is the version of the last update per id, which sets the completion flag outright.
	settled  map[string]uint64
	loadMark uint64
}

func New(
	tasks repository.TaskGateway,
	schedule repository.ScheduleGateway,
	tracker usecase.EventTracker,
	observer usecase.CompletionObserver,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = usecase.NopTracker{}
	}
	return &UseCase{
		tasks:     tasks,
		schedule:  schedule,
		tracker:   tracker,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
		items:     []domain.Task{},
		criteria:  domain.DefaultCriteria(),
		versions:  make(map[string]uint64),
		settled:   make(map[string]uint64),
		listeners: make(map[int]usecase.Listener),
	}
}

// WithClock replaces the time source used for completion timestamps.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// Load replaces the collection with the service's list for the current filter.
// Only the most recently issued load is applied.
func (uc *UseCase) Load(ctx context.Context) error {
	uc.mu.Lock()
	uc.loadSeq++
	ticket := uc.loadSeq
	filter := repository.TaskFilterFrom(uc.criteria.Filter)
	uc.loading = true
	uc.mu.Unlock()
	uc.notify()

	tasks, err := uc.tasks.List(ctx, filter)

	uc.mu.Lock()
	if ticket != uc.loadSeq {
		uc.mu.Unlock()
		metrics.StaleResponses.WithLabelValues("load").Inc()
		return err
	}
	uc.loading = false
	if err != nil {
		uc.err = err
		uc.mu.Unlock()
		uc.logger.Warn("failed to load tasks", zap.Error(err))
		uc.notify()
		return err
	}
	uc.items = domain.CloneTasks(tasks)
	if uc.items == nil {
		uc.items = []domain.Task{}
	}
	uc.err = nil
	// results of mutations issued before the load no longer apply
	for id := range uc.versions {
		uc.versions[id] = uc.nextVersion()
	}
	uc.loadMark = uc.seq
	uc.mu.Unlock()
	uc.notify()
	return nil
}

// Tasks returns a copy of the canonical collection.
func (uc *UseCase) Tasks() []domain.Task {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return domain.CloneTasks(uc.items)
}

// Get returns a copy of the task with id.
func (uc *UseCase) Get(id string) (*domain.Task, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrTaskNotFound
	}
	t := uc.items[idx].Clone()
	return &t, nil
}

// View derives the visible list and tab counts from the current state.
func (uc *UseCase) View() view.Result {
	uc.mu.Lock()
	items := domain.CloneTasks(uc.items)
	criteria := uc.criteria
	criteria.Filter = criteria.Filter.Clone()
	uc.mu.Unlock()
	return view.Compute(items, criteria)
}

// List derives the visible list for explicit criteria, ignoring the stored ones.
func (uc *UseCase) List(criteria domain.Criteria) []domain.Task {
	return view.Compute(uc.Tasks(), criteria).Tasks
}

func (uc *UseCase) Loading() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.loading
}

// Err returns the error of the last failed load.
func (uc *UseCase) Err() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.err
}

// Create persists draft and appends the server's record. Nothing changes locally on failure.
func (uc *UseCase) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	draft = draft.WithDefaults()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, draft)
	if err != nil {
		uc.logger.Warn("failed to create task", zap.Error(err))
		return nil, err
	}
	t := created.Clone()
	t.Normalize()

	uc.mu.Lock()
	if idx := uc.indexOf(t.ID); idx >= 0 {
		uc.items[idx] = t.Clone()
	} else {
		uc.items = append(uc.items, t.Clone())
	}
	uc.versions[t.ID] = uc.nextVersion()
	uc.mu.Unlock()
	uc.notify()

	uc.tracker.TrackCreated(t)
	return &t, nil
}

// Update applies changes locally, sends them, and merges the server's record.
// A failure restores the pre-update task unless a newer mutation has since been issued.
func (uc *UseCase) Update(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	idx := uc.indexOf(id)
	if idx < 0 {
		uc.mu.Unlock()
		return nil, domain.ErrTaskNotFound
	}
	before := uc.items[idx].Clone()
	completes := changes.Completes(before)
	changes.Apply(&uc.items[idx])
	version := uc.bump(id)
	uc.settled[id] = version
	uc.mu.Unlock()
	uc.notify()

	updated, err := uc.tasks.Update(ctx, id, changes)
	if err != nil {
		uc.rollback("update", id, version, before)
		return nil, err
	}

	result := uc.reconcile("update", id, version, *updated)
	uc.tracker.TrackUpdated(id, changes.Fields())
	if completes {
		uc.complete(result)
	}
	return &result, nil
}

// ToggleComplete flips the completion flag optimistically. The local flip is authoritative;
// the server's response never overwrites it. XP is awarded only when the task was incomplete.
func (uc *UseCase) ToggleComplete(ctx context.Context, id string) (*domain.Task, error) {
	uc.mu.Lock()
	idx := uc.indexOf(id)
	if idx < 0 {
		uc.mu.Unlock()
		return nil, domain.ErrTaskNotFound
	}
	before := uc.items[idx].Clone()
	wasCompleted := before.Completed
	uc.items[idx].SetCompleted(!wasCompleted)
	if wasCompleted {
		uc.items[idx].CompletedAt = nil
	} else {
		at := uc.now()
		uc.items[idx].CompletedAt = &at
	}
	toggled := uc.items[idx].Clone()
	version := uc.bump(id)
	uc.mu.Unlock()
	uc.notify()

	if _, err := uc.tasks.Complete(ctx, id); err != nil {
		uc.revertToggle(id, version, before)
		return nil, err
	}

	uc.mu.Lock()
	stale := !uc.latest(id, version)
	uc.mu.Unlock()
	if stale {
		metrics.StaleResponses.WithLabelValues("toggle").Inc()
	}
	if !wasCompleted {
		uc.complete(toggled)
	}
	if current, err := uc.Get(id); err == nil {
		return current, nil
	}
	return &toggled, nil
}

// Delete reports the deletion, then removes the task once the service confirms it.
// On failure the task stays in the collection.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	uc.tracker.TrackDeleted(id)

	if err := uc.tasks.Delete(ctx, id); err != nil {
		uc.logger.Warn("failed to delete task", zap.String("task_id", id), zap.Error(err))
		return err
	}

	uc.mu.Lock()
	if idx := uc.indexOf(id); idx >= 0 {
		uc.items = append(uc.items[:idx], uc.items[idx+1:]...)
	}
	// any result still in flight for id is now stale
	delete(uc.versions, id)
	uc.mu.Unlock()
	uc.notify()
	return nil
}

// MoveTask changes the workflow status. Moving to the current status is a no-op without a request.
func (uc *UseCase) MoveTask(ctx context.Context, id string, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "validation failed").
			WithData(map[string]string{"status": "status must be one of todo in_progress completed"})
	}
	current, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	return uc.Update(ctx, id, domain.TaskChanges{Status: &status})
}

// RescheduleTask asks the scheduler to move a task and records the new due date on success.
func (uc *UseCase) RescheduleTask(ctx context.Context, id string, newTime time.Time, current domain.Schedule) (domain.Schedule, error) {
	if uc.schedule == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "scheduler unavailable")
	}
	out, err := uc.schedule.Reschedule(ctx, id, newTime, current)
	if err != nil {
		uc.logger.Warn("failed to reschedule task", zap.String("task_id", id), zap.Error(err))
		return nil, err
	}

	uc.mu.Lock()
	if idx := uc.indexOf(id); idx >= 0 {
		due := newTime
		uc.items[idx].DueDate = &due
		uc.bump(id)
	}
	uc.mu.Unlock()
	uc.notify()
	return out, nil
}

// GenerateSchedule is a pass-through to the schedule generator.
func (uc *UseCase) GenerateSchedule(ctx context.Context, params domain.ScheduleRequest) (domain.Schedule, error) {
	if uc.schedule == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "scheduler unavailable")
	}
	return uc.schedule.Generate(ctx, params)
}

// Criteria returns a copy of the current filter, tab and sort.
func (uc *UseCase) Criteria() domain.Criteria {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.criteria
	c.Filter = c.Filter.Clone()
	return c
}

// SetFilter replaces the field filters and keeps the search term.
func (uc *UseCase) SetFilter(f domain.Filter) {
	uc.mutateCriteria(func(c *domain.Criteria) {
		search := c.Filter.Search
		c.Filter = f.Clone()
		c.Filter.Search = search
	})
}

func (uc *UseCase) SetSearch(term string) {
	uc.mutateCriteria(func(c *domain.Criteria) { c.Filter.Search = term })
}

func (uc *UseCase) SetTab(tab domain.Tab) {
	uc.mutateCriteria(func(c *domain.Criteria) { c.Tab = tab })
}

func (uc *UseCase) SetSort(key domain.SortKey) {
	uc.mutateCriteria(func(c *domain.Criteria) { c.Sort = key })
}

// ResetFilters clears the field filters and the search term. Tab and sort are kept.
func (uc *UseCase) ResetFilters() {
	uc.mutateCriteria(func(c *domain.Criteria) { c.Filter = domain.Filter{} })
}

// Subscribe registers l to run after every state change. The returned function detaches it.
func (uc *UseCase) Subscribe(l usecase.Listener) (unsubscribe func()) {
	uc.mu.Lock()
	id := uc.nextID
	uc.nextID++
	uc.listeners[id] = l
	uc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			uc.mu.Lock()
			delete(uc.listeners, id)
			uc.mu.Unlock()
		})
	}
}

// Reset drops all state for a session change. Results still in flight are discarded.
func (uc *UseCase) Reset() {
	uc.mu.Lock()
	uc.items = []domain.Task{}
	uc.criteria = domain.DefaultCriteria()
	uc.loading = false
	uc.err = nil
	uc.versions = make(map[string]uint64)
	uc.settled = make(map[string]uint64)
	uc.loadSeq++
	uc.mu.Unlock()
	uc.notify()
}

func (uc *UseCase) mutateCriteria(fn func(c *domain.Criteria)) {
	uc.mu.Lock()
	fn(&uc.criteria)
	uc.mu.Unlock()
	uc.notify()
}

// reconcile merges the server's record when version is still the latest one issued for id.
func (uc *UseCase) reconcile(op, id string, version uint64, server domain.Task) domain.Task {
	uc.mu.Lock()
	idx := uc.indexOf(id)
	if !uc.latest(id, version) || idx < 0 {
		uc.mu.Unlock()
		metrics.StaleResponses.WithLabelValues(op).Inc()
		uc.logger.Debug("discarding stale response", zap.String("op", op), zap.String("task_id", id))
		server.Normalize()
		return server
	}
	merged := merge(uc.items[idx], server)
	uc.items[idx] = merged.Clone()
	uc.mu.Unlock()
	uc.notify()
	return merged
}

// rollback restores before when version is still the latest one issued for id.
func (uc *UseCase) rollback(op, id string, version uint64, before domain.Task) {
	uc.mu.Lock()
	idx := uc.indexOf(id)
	if !uc.latest(id, version) || idx < 0 {
		uc.mu.Unlock()
		uc.logger.Debug("skipping rollback for superseded mutation", zap.String("op", op), zap.String("task_id", id))
		return
	}
	uc.items[idx] = before
	uc.mu.Unlock()
	metrics.Rollbacks.WithLabelValues(op).Inc()
	uc.logger.Warn("mutation failed, local change rolled back", zap.String("op", op), zap.String("task_id", id))
	uc.notify()
}

// revertToggle undoes a failed toggle. The complete call flips the server's flag, so toggles
// issued after this one are relative to it: only this toggle's own flip is reversed. A later
// update or load sets the flag outright and leaves nothing to undo.
func (uc *UseCase) revertToggle(id string, version uint64, before domain.Task) {
	uc.mu.Lock()
	idx := uc.indexOf(id)
	if idx < 0 || version <= uc.loadMark || uc.settled[id] > version {
		uc.mu.Unlock()
		uc.logger.Debug("skipping rollback for superseded mutation", zap.String("op", "toggle"), zap.String("task_id", id))
		return
	}
	if uc.latest(id, version) {
		uc.items[idx] = before
	} else {
		t := &uc.items[idx]
		t.SetCompleted(!t.Completed)
		if t.Completed {
			at := uc.now()
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
	}
	uc.mu.Unlock()
	metrics.Rollbacks.WithLabelValues("toggle").Inc()
	uc.logger.Warn("toggle failed, local flip reversed", zap.String("task_id", id))
	uc.notify()
}

func (uc *UseCase) complete(t domain.Task) {
	if uc.observer != nil {
		uc.observer.ApplyOptimisticCompletion(t)
	}
	uc.tracker.TrackCompleted(domain.NewCompletion(t, uc.now()))
}

func (uc *UseCase) notify() {
	uc.mu.Lock()
	listeners := make([]usecase.Listener, 0, len(uc.listeners))
	for _, l := range uc.listeners {
		listeners = append(listeners, l)
	}
	uc.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

func (uc *UseCase) indexOf(id string) int {
	for i := range uc.items {
		if uc.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (uc *UseCase) nextVersion() uint64 {
	uc.seq++
	return uc.seq
}

func (uc *UseCase) bump(id string) uint64 {
	v := uc.nextVersion()
	uc.versions[id] = v
	return v
}

func (uc *UseCase) latest(id string, version uint64) bool {
	v, ok := uc.versions[id]
	return ok && v == version
}

// merge lets the server's record win, keeping local identity fields the response left out.
func merge(local, server domain.Task) domain.Task {
	out := server.Clone()
	if out.ID == "" {
		out.ID = local.ID
	}
	if out.Title == "" {
		out.Title = local.Title
	}
	if out.UserID == "" {
		out.UserID = local.UserID
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = local.CreatedAt
	}
	out.Normalize()
	return out
}
