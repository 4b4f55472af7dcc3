// Package memory is an in-process task service backend used by the devserver and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

const weeklyGoal = 10

type account struct {
	tasks     map[string]*domain.Task
	order     []string
	stats     domain.UserStats
	weekStart time.Time
	weekCount int
	lastDay   time.Time
	events    []domain.Event
}

// Store keeps every user's tasks and analytics counters in memory.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	now      func() time.Time
}

func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{accounts: make(map[string]*account), now: now}
}

func (s *Store) account(userID string) *account {
	a, ok := s.accounts[userID]
	if !ok {
		a = &account{tasks: make(map[string]*domain.Task)}
		a.stats.AddXP(0)
		s.accounts[userID] = a
	}
	return a
}

// ListTasks returns the user's tasks in creation order.
func (s *Store) ListTasks(_ context.Context, userID string, filter repository.TaskFilter) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return []domain.Task{}
	}
	out := make([]domain.Task, 0, len(a.order))
	for _, id := range a.order {
		t := a.tasks[id]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

func (s *Store) GetTask(_ context.Context, userID, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t, ok := a.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := t.Clone()
	return &cp, nil
}

func (s *Store) CreateTask(_ context.Context, userID string, draft domain.TaskDraft) (*domain.Task, error) {
	draft = draft.WithDefaults()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	category := strings.ToLower(draft.Category)
	if category == "" {
		category = "other"
	}
	now := s.now().UTC()
	t := &domain.Task{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             draft.Title,
		Description:       draft.Description,
		Priority:          draft.Priority,
		Category:          category,
		Status:            domain.StatusTodo,
		EstimatedDuration: draft.EstimatedDuration,
		EnergyLevel:       draft.EnergyLevel,
		XPValue:           domain.XPForPriority(draft.Priority),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if draft.DueDate != nil {
		due := draft.DueDate.UTC()
		t.DueDate = &due
	}

	s.mu.Lock()
	a := s.account(userID)
	a.tasks[t.ID] = t
	a.order = append(a.order, t.ID)
	s.mu.Unlock()

	cp := t.Clone()
	return &cp, nil
}

func (s *Store) UpdateTask(_ context.Context, userID, id string, changes domain.TaskChanges) (*domain.Task, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(userID, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := t.Completed
	changes.Apply(t)
	if changes.Priority != nil {
		t.XPValue = domain.XPForPriority(t.Priority)
	}
	s.stampCompletion(t, wasCompleted)
	cp := t.Clone()
	return &cp, nil
}

// CompleteTask toggles completion so a client can reopen a task through the same endpoint.
func (s *Store) CompleteTask(_ context.Context, userID, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(userID, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := t.Completed
	t.SetCompleted(!wasCompleted)
	s.stampCompletion(t, wasCompleted)
	cp := t.Clone()
	return &cp, nil
}

func (s *Store) DeleteTask(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if _, ok := a.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(a.tasks, id)
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return nil
}

// Reschedule moves the task's due date and echoes the schedule with the move applied.
func (s *Store) Reschedule(_ context.Context, userID, id string, newTime time.Time) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(userID, id)
	if err != nil {
		return nil, err
	}
	due := newTime.UTC()
	t.DueDate = &due
	t.UpdatedAt = s.now().UTC()
	cp := t.Clone()
	return &cp, nil
}

// ScheduleSlot is one entry of a generated schedule.
type ScheduleSlot struct {
	TaskID   string    `json:"task_id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Priority int       `json:"priority"`
}

// GenerateSchedule lays open tasks back to back from the next full hour, highest priority first.
func (s *Store) GenerateSchedule(_ context.Context, userID string) []ScheduleSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return []ScheduleSlot{}
	}
	var open []*domain.Task
	for _, id := range a.order {
		if t := a.tasks[id]; !t.Completed {
			open = append(open, t)
		}
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].Priority > open[j].Priority })

	cursor := s.now().UTC().Truncate(time.Hour).Add(time.Hour)
	slots := make([]ScheduleSlot, 0, len(open))
	for _, t := range open {
		d := time.Duration(t.EstimatedDuration) * time.Minute
		if d <= 0 {
			d = 30 * time.Minute
		}
		slots = append(slots, ScheduleSlot{TaskID: t.ID, Title: t.Title, Start: cursor, End: cursor.Add(d), Priority: int(t.Priority)})
		cursor = cursor.Add(d)
	}
	return slots
}

// RecordEvent stores a tracking event. Completion events credit their XP.
func (s *Store) RecordEvent(_ context.Context, userID string, ev domain.Event) error {
	if ev.Kind == "" {
		return domain.NewError(domain.ErrCodeInvalid, "event_type is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	now := s.now().UTC()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	a.events = append(a.events, ev)

	today := now.Truncate(24 * time.Hour)
	switch {
	case a.lastDay.IsZero() || a.lastDay.Before(today.Add(-24*time.Hour)):
		a.stats.CurrentStreak = 1
	case a.lastDay.Before(today):
		a.stats.CurrentStreak++
	}
	if a.stats.CurrentStreak > a.stats.BestStreak {
		a.stats.BestStreak = a.stats.CurrentStreak
	}
	a.lastDay = today

	if ws := weekStart(now); a.weekStart.Before(ws) {
		a.weekStart = ws
		a.weekCount = 0
	}
	if ev.Kind == domain.EventTaskCompleted {
		a.stats.TotalTasksCompleted++
		a.weekCount++
		a.stats.AddXP(ev.XPEarned)
	}
	return nil
}

func (s *Store) Events(userID string) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	return append([]domain.Event(nil), a.events...)
}

// Dashboard assembles the analytics snapshot for userID.
func (s *Store) Dashboard(_ context.Context, userID string) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)
	ws := weekStart(now)
	if a.weekStart.Before(ws) {
		a.weekStart = ws
		a.weekCount = 0
	}

	snap := domain.Snapshot{
		UserStats:            a.stats,
		WeeklyMetrics:        domain.WeeklyMetrics{TasksCompleted: a.weekCount, Goal: weeklyGoal},
		ProductivityScore:    min(100, a.weekCount*10),
		TodayTasks:           []domain.TaskDigest{},
		UpcomingDeadlines:    []domain.TaskDigest{},
		CategoryDistribution: map[string]int{},
		TimeOfDay:            map[string]int{},
		FetchedAt:            now,
	}

	var weekDue, weekDone int
	for _, id := range a.order {
		t := a.tasks[id]
		snap.CategoryDistribution[t.Category]++
		if t.CompletedAt != nil {
			snap.TimeOfDay[timeOfDay(*t.CompletedAt)]++
			if !t.CompletedAt.Before(ws) {
				weekDone++
			}
		}
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.UTC()
		if !due.Before(ws) && due.Before(ws.Add(7*24*time.Hour)) {
			weekDue++
		}
		if !due.Before(today) && due.Before(today.Add(24*time.Hour)) {
			snap.TodayTasks = append(snap.TodayTasks, digest(t, today))
		}
		if !t.Completed && !due.Before(now) && !due.After(now.Add(72*time.Hour)) {
			snap.UpcomingDeadlines = append(snap.UpcomingDeadlines, digest(t, today))
		}
	}
	if weekDue > 0 {
		snap.WeeklyCompletion = float64(weekDone) / float64(weekDue) * 100
	}
	sort.SliceStable(snap.TodayTasks, func(i, j int) bool { return snap.TodayTasks[i].Priority > snap.TodayTasks[j].Priority })
	sort.SliceStable(snap.UpcomingDeadlines, func(i, j int) bool {
		return snap.UpcomingDeadlines[i].DueDate.Before(*snap.UpcomingDeadlines[j].DueDate)
	})
	if len(snap.UpcomingDeadlines) > 5 {
		snap.UpcomingDeadlines = snap.UpcomingDeadlines[:5]
	}
	snap.Normalize()
	return snap
}

// Insights derives short suggestions from the dashboard numbers.
func (s *Store) Insights(ctx context.Context, userID string) []string {
	snap := s.Dashboard(ctx, userID)
	insights := []string{}
	if n := len(snap.UpcomingDeadlines); n > 0 {
		insights = append(insights, fmt.Sprintf("You have %d deadline(s) in the next three days.", n))
	}
	if snap.UserStats.CurrentStreak > 1 {
		insights = append(insights, fmt.Sprintf("You are on a %d day streak.", snap.UserStats.CurrentStreak))
	}
	if best, n := busiest(snap.TimeOfDay); n > 0 {
		insights = append(insights, fmt.Sprintf("You complete most tasks in the %s.", best))
	}
	if snap.WeeklyMetrics.TasksCompleted >= snap.WeeklyMetrics.Goal {
		insights = append(insights, "Weekly goal reached.")
	}
	return insights
}

// Heatmap counts completions per day over the last twelve weeks.
func (s *Store) Heatmap(_ context.Context, userID string) []domain.HeatmapDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -7*11)

	counts := map[string]int{}
	if a, ok := s.accounts[userID]; ok {
		for _, t := range a.tasks {
			if t.Completed && t.CompletedAt != nil {
				counts[t.CompletedAt.UTC().Format("2006-01-02")]++
			}
		}
	}
	days := make([]domain.HeatmapDay, 0, 7*12)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		_, week := d.ISOWeek()
		days = append(days, domain.HeatmapDay{
			Date:       key,
			Count:      counts[key],
			Weekday:    (int(d.Weekday()) + 6) % 7,
			WeekNumber: week,
		})
	}
	return days
}

// Productivity reports the daily completion rate of the last week and per-category totals.
func (s *Store) Productivity(ctx context.Context, userID string) domain.ProductivityMetrics {
	days := s.Heatmap(ctx, userID)
	snap := s.Dashboard(ctx, userID)
	m := domain.ProductivityMetrics{
		Categories: snap.CategoryDistribution,
		TimeOfDay:  snap.TimeOfDay,
	}
	if len(days) > 7 {
		days = days[len(days)-7:]
	}
	for _, d := range days {
		m.Trend = append(m.Trend, domain.RatePoint{Date: d.Date, Rate: float64(min(d.Count*10, 100))})
	}
	return m
}

func (s *Store) task(userID, id string) (*domain.Task, error) {
	a, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t, ok := a.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

func (s *Store) stampCompletion(t *domain.Task, wasCompleted bool) {
	now := s.now().UTC()
	switch {
	case t.Completed && !wasCompleted:
		t.CompletedAt = &now
	case !t.Completed:
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

func digest(t *domain.Task, today time.Time) domain.TaskDigest {
	due := t.DueDate.UTC()
	return domain.TaskDigest{
		ID:           t.ID,
		Title:        t.Title,
		Priority:     t.Priority,
		DueDate:      &due,
		Completed:    t.Completed,
		DaysUntilDue: int(due.Truncate(24*time.Hour).Sub(today).Hours() / 24),
	}
}

func weekStart(t time.Time) time.Time {
	day := t.UTC().Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 21:
		return "evening"
	default:
		return "night"
	}
}

func busiest(counts map[string]int) (string, int) {
	var best string
	var n int
	for k, v := range counts {
		if v > n || (v == n && k < best) {
			best, n = k, v
		}
	}
	return best, n
}
