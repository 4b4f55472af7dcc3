package usecase

import "github.com/fastygo/taskpulse/domain"

// EventTracker is the fire-and-forget telemetry port. Implementations must never block the caller
// and never report delivery failures back.
type EventTracker interface {
	TrackCreated(task domain.Task)
	TrackUpdated(taskID string, fields []string)
	TrackDeleted(taskID string)
	TrackCompleted(completion domain.Completion)
}

// CompletionObserver receives task completions ahead of server confirmation.
type CompletionObserver interface {
	ApplyOptimisticCompletion(task domain.Task) int
}

// Listener is invoked after a store changes state.
type Listener func()

// NopTracker discards every event.
type NopTracker struct{}

func (NopTracker) TrackCreated(domain.Task)         {}
func (NopTracker) TrackUpdated(string, []string)    {}
func (NopTracker) TrackDeleted(string)              {}
func (NopTracker) TrackCompleted(domain.Completion) {}

var _ EventTracker = NopTracker{}
