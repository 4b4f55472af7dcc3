package transport

import (
	"encoding/json"
	"time"
)

type RescheduleRequest struct {
	TaskID          string          `json:"taskId"`
	NewTime         time.Time       `json:"newTime"`
	CurrentSchedule json.RawMessage `json:"currentSchedule,omitempty"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

// InsightsPayload is the data of GET /analytics/insights.
type InsightsPayload struct {
	Insights []string `json:"insights"`
}

type AuthLoginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
