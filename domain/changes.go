package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// TaskDraft is the payload for creating a task. It has no id: the service assigns it.
type TaskDraft struct {
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description,omitempty"`
	Priority          Priority   `json:"priority" validate:"min=1,max=3"`
	Category          string     `json:"category,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	EstimatedDuration int        `json:"estimated_duration" validate:"min=1"`
	EnergyLevel       int        `json:"energy_level,omitempty" validate:"min=0,max=5"`
}

// WithDefaults fills the values the task form pre-selects.
func (d TaskDraft) WithDefaults() TaskDraft {
	if d.Priority == 0 {
		d.Priority = PriorityMedium
	}
	if d.EstimatedDuration == 0 {
		d.EstimatedDuration = 30
	}
	return d
}

// Validate checks the draft without contacting the service.
func (d *TaskDraft) Validate() error {
	if d == nil {
		return ErrInvalidPayload
	}
	d.Title = strings.TrimSpace(d.Title)
	return validationError(validate.Struct(d))
}

// TaskChanges is a partial update. Nil fields are left untouched.
type TaskChanges struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description       *string    `json:"description,omitempty"`
	Priority          *Priority  `json:"priority,omitempty" validate:"omitempty,min=1,max=3"`
	Category          *string    `json:"category,omitempty"`
	Status            *Status    `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress completed"`
	Completed         *bool      `json:"is_completed,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	ClearDueDate      bool       `json:"-"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty" validate:"omitempty,min=1"`
	EnergyLevel       *int       `json:"energy_level,omitempty" validate:"omitempty,min=0,max=5"`
}

// Validate checks the present fields without contacting the service.
func (c *TaskChanges) Validate() error {
	if c == nil {
		return ErrInvalidPayload
	}
	if c.Title != nil {
		trimmed := strings.TrimSpace(*c.Title)
		if trimmed == "" {
			return NewError(ErrCodeInvalid, "validation failed").WithData(map[string]string{"title": "title is required"})
		}
		c.Title = &trimmed
	}
	if c.Status != nil && c.Completed != nil && *c.Completed != (*c.Status == StatusCompleted) {
		return NewError(ErrCodeInvalid, "validation failed").WithData(map[string]string{"status": "status and is_completed disagree"})
	}
	if c.IsEmpty() {
		return NewError(ErrCodeInvalid, "no changes supplied")
	}
	return validationError(validate.Struct(c))
}

// IsEmpty reports whether no field is set.
func (c TaskChanges) IsEmpty() bool {
	return len(c.Fields()) == 0
}

// Fields returns the sorted wire names of the changed fields.
func (c TaskChanges) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(c.Title != nil, "title")
	add(c.Description != nil, "description")
	add(c.Priority != nil, "priority")
	add(c.Category != nil, "category")
	add(c.Status != nil, "status")
	add(c.Completed != nil, "is_completed")
	add(c.DueDate != nil || c.ClearDueDate, "due_date")
	add(c.EstimatedDuration != nil, "estimated_duration")
	add(c.EnergyLevel != nil, "energy_level")
	sort.Strings(fields)
	return fields
}

// Apply mutates t in place. Status is applied before the completion flag so the flag wins.
func (c TaskChanges) Apply(t *Task) {
	if t == nil {
		return
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.Category != nil {
		t.Category = *c.Category
	}
	if c.Status != nil {
		t.SetStatus(*c.Status)
	}
	if c.Completed != nil {
		t.SetCompleted(*c.Completed)
	}
	switch {
	case c.ClearDueDate:
		t.DueDate = nil
	case c.DueDate != nil:
		due := *c.DueDate
		t.DueDate = &due
	}
	if c.EstimatedDuration != nil {
		t.EstimatedDuration = *c.EstimatedDuration
	}
	if c.EnergyLevel != nil {
		t.EnergyLevel = *c.EnergyLevel
	}
}

// Completes reports whether applying the changes moves before into the completed state.
func (c TaskChanges) Completes(before Task) bool {
	if before.Completed {
		return false
	}
	after := before.Clone()
	c.Apply(&after)
	return after.Completed
}

// MarshalJSON emits only present fields; a cleared due date is sent as null.
func (c TaskChanges) MarshalJSON() ([]byte, error) {
	type alias TaskChanges
	raw, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	if !c.ClearDueDate {
		return raw, nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["due_date"] = nil
	return json.Marshal(fields)
}

// UnmarshalJSON accepts an explicit null due date as a clear.
func (c *TaskChanges) UnmarshalJSON(data []byte) error {
	type alias TaskChanges
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = TaskChanges(decoded)
	if raw, ok := fields["due_date"]; ok && string(raw) == "null" {
		c.ClearDueDate = true
	}
	return nil
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WrapError(ErrCodeInvalid, "validation failed", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return NewError(ErrCodeInvalid, "validation failed").WithData(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// StringPtr and friends build TaskChanges literals.
func StringPtr(v string) *string       { return &v }
func BoolPtr(v bool) *bool             { return &v }
func IntPtr(v int) *int                { return &v }
func PriorityPtr(v Priority) *Priority { return &v }
func StatusPtr(v Status) *Status       { return &v }
func TimePtr(v time.Time) *time.Time   { return &v }
