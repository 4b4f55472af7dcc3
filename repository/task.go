package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

// TaskFilter is the server-side narrowing applied when listing tasks.
type TaskFilter struct {
	Status   *domain.Status
	Priority *domain.Priority
	Category *string
}

// TaskFilterFrom keeps the dimensions of f the service can filter on.
func TaskFilterFrom(f domain.Filter) TaskFilter {
	f = f.Clone()
	return TaskFilter{Status: f.Status, Priority: f.Priority, Category: f.Category}
}

// TaskGateway is the remote task API.
type TaskGateway interface {
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	Update(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) (*domain.Task, error)
}

// ScheduleGateway is the remote scheduler API. Results are opaque to the client.
type ScheduleGateway interface {
	Generate(ctx context.Context, params domain.ScheduleRequest) (domain.Schedule, error)
	Reschedule(ctx context.Context, id string, newTime time.Time, current domain.Schedule) (domain.Schedule, error)
}
