package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityEvent = "event"

	// Lower values drain first.
	PriorityCompletion = 1
	PriorityDefault    = 3
)

// Item is a payload waiting to be delivered once the service is reachable again.
type Item struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Entity == "" {
		i.Entity = EntityEvent
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = PriorityDefault
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
