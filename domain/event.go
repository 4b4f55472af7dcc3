package domain

import (
	"encoding/json"
	"time"
)

// EventKind names a task lifecycle action reported to the analytics service.
type EventKind string

const (
	EventTaskCreated   EventKind = "task_created"
	EventTaskUpdated   EventKind = "task_updated"
	EventTaskDeleted   EventKind = "task_deleted"
	EventTaskCompleted EventKind = "task_completed"
)

// Event is a best-effort tracking record. Updates carries field names, never values.
type Event struct {
	ID         string    `json:"-"`
	Kind       EventKind `json:"event_type"`
	TaskID     string    `json:"task_id"`
	Priority   Priority  `json:"task_priority,omitempty"`
	Category   string    `json:"task_category,omitempty"`
	Updates    []string  `json:"updates,omitempty"`
	XPEarned   int       `json:"xp_earned,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Completion is the transient link between a completed task and its XP award.
type Completion struct {
	TaskID     string
	Priority   Priority
	XP         int
	OccurredAt time.Time
}

// NewCompletion derives the XP award for t.
func NewCompletion(t Task, at time.Time) Completion {
	return Completion{
		TaskID:     t.ID,
		Priority:   t.Priority,
		XP:         XPForPriority(t.Priority),
		OccurredAt: at,
	}
}

// ScheduleRequest is forwarded verbatim to the schedule generator.
type ScheduleRequest map[string]interface{}

// Schedule is opaque to the client; it is only handed back to the caller.
type Schedule = json.RawMessage
