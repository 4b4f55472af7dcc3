package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

func (c *Client) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := map[string]string{}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.Priority != nil {
		query["priority"] = strconv.Itoa(int(*filter.Priority))
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	var raw json.RawMessage
	if err := c.do(ctx, call{op: "list_tasks", method: http.MethodGet, path: "/tasks", query: query}, &raw); err != nil {
		return nil, err
	}
	return decodeTasks(raw)
}

func (c *Client) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "create_task", method: http.MethodPost, path: "/tasks", body: draft}, &raw); err != nil {
		return nil, err
	}
	return decodeTask(raw)
}

func (c *Client) Update(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "update_task", method: http.MethodPut, path: taskPath(id), body: changes}, &raw); err != nil {
		return nil, err
	}
	return decodeTask(raw)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "delete_task", method: http.MethodDelete, path: taskPath(id)}, nil)
}

func (c *Client) Complete(ctx context.Context, id string) (*domain.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "complete_task", method: http.MethodPost, path: taskPath(id) + "/complete"}, &raw); err != nil {
		return nil, err
	}
	return decodeTask(raw)
}

func (c *Client) Generate(ctx context.Context, params domain.ScheduleRequest) (domain.Schedule, error) {
	if params == nil {
		params = domain.ScheduleRequest{}
	}
	var out json.RawMessage
	if err := c.do(ctx, call{op: "generate_schedule", method: http.MethodPost, path: "/scheduler/generate", body: params}, &out); err != nil {
		return nil, err
	}
	return domain.Schedule(out), nil
}

func (c *Client) Reschedule(ctx context.Context, id string, newTime time.Time, current domain.Schedule) (domain.Schedule, error) {
	body := transport.RescheduleRequest{TaskID: id, NewTime: newTime, CurrentSchedule: json.RawMessage(current)}
	var out json.RawMessage
	if err := c.do(ctx, call{op: "reschedule_task", method: http.MethodPost, path: "/scheduler/reschedule", body: body}, &out); err != nil {
		return nil, err
	}
	return domain.Schedule(out), nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}
