package domain

import "time"

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority is the ordinal importance of a task. Zero means unset.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unset"
	}
}

// Categories offered by the task form. Any other value is accepted as free-form.
var Categories = []string{"work", "study", "personal", "health", "other"}

// Task represents a user-owned unit of work as returned by the service.
type Task struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          Priority   `json:"priority"`
	Category          string     `json:"category,omitempty"`
	Status            Status     `json:"status"`
	Completed         bool       `json:"is_completed"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"`
	EnergyLevel       int        `json:"energy_level,omitempty"`
	XPValue           int        `json:"xp_value,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// SetCompleted flips the completion flag and keeps the status in step.
func (t *Task) SetCompleted(done bool) {
	if t == nil {
		return
	}
	t.Completed = done
	switch {
	case done:
		t.Status = StatusCompleted
	case t.Status == StatusCompleted || t.Status == "":
		t.Status = StatusTodo
	}
}

// SetStatus moves the task to status and keeps the completion flag in step.
func (t *Task) SetStatus(status Status) {
	if t == nil {
		return
	}
	t.Status = status
	t.Completed = status == StatusCompleted
}

// Normalize repairs a payload whose completion flag and status disagree.
// The flag wins because every service endpoint sets it explicitly.
func (t *Task) Normalize() {
	if t == nil {
		return
	}
	if t.Completed != (t.Status == StatusCompleted) || t.Status == "" {
		t.SetCompleted(t.Completed)
	}
}

// Clone returns a deep copy safe to hand out of a store.
func (t Task) Clone() Task {
	cp := t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	return cp
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}
