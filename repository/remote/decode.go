package remote

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/domain"
)

// decodeResponse turns a service response into out or a normalized *domain.Error.
// Bodies that are not wrapped in an envelope are decoded as the data itself.
func decodeResponse(status int, body []byte, out interface{}) error {
	var env transport.RawEnvelope
	enveloped := len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &env) == nil && env.Status != ""

	if status < 200 || status > 299 {
		return rejection(status, body, env, enveloped)
	}
	if out == nil || status == http.StatusNoContent {
		return nil
	}

	data := json.RawMessage(body)
	if enveloped {
		if env.Status == transport.StatusError {
			return rejection(status, body, env, enveloped)
		}
		data = env.Data
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.ErrMalformed
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.WrapError(domain.ErrCodeMalformed, domain.ErrMalformed.Message, err)
	}
	return nil
}

func rejection(status int, body []byte, env transport.RawEnvelope, enveloped bool) error {
	message := ""
	var data interface{}
	if enveloped {
		message = env.Message()
		if len(env.Meta) > 0 {
			_ = json.Unmarshal(env.Meta, &data)
		}
	} else {
		var plain struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &plain) == nil {
			message = plain.Message
			if message == "" {
				message = plain.Error
			}
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &domain.Error{Code: codeForStatus(status), Message: message, Data: data}
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrCodeInvalid
	case http.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case http.StatusForbidden:
		return domain.ErrCodeForbidden
	case http.StatusNotFound:
		return domain.ErrCodeNotFound
	case http.StatusConflict:
		return domain.ErrCodeConflict
	default:
		return domain.ErrCodeRejected
	}
}

// decodeTask accepts either a bare task or {"task": {...}}.
func decodeTask(raw json.RawMessage) (*domain.Task, error) {
	var wrapped struct {
		Task *domain.Task `json:"task"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Task != nil {
		wrapped.Task.Normalize()
		return wrapped.Task, nil
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, domain.WrapError(domain.ErrCodeMalformed, domain.ErrMalformed.Message, err)
	}
	if task.ID == "" {
		return nil, domain.ErrMalformed
	}
	task.Normalize()
	return &task, nil
}

// decodeTasks accepts either a bare array or {"tasks": [...]}.
func decodeTasks(raw json.RawMessage) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		var wrapped struct {
			Tasks []domain.Task `json:"tasks"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, domain.WrapError(domain.ErrCodeMalformed, domain.ErrMalformed.Message, err)
		}
		tasks = wrapped.Tasks
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}
