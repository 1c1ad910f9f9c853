package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageEvent is the queue payload produced after a completed model call and
// drained by the worker pool into the usage collection.
type UsageEvent struct {
	ID         uuid.UUID   `json:"id"`
	SessionID  uuid.UUID   `json:"session_id"`
	Record     UsageRecord `json:"record"`
	RetryCount int         `json:"retry_count"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type UsageUpdate struct {
	Record    UsageRecord `json:"record"`
	TotalCost float64     `json:"total_cost"`
}

type ConversationSaved struct {
	ConversationID string `json:"conversation_id"`
	ProjectID      string `json:"project_id"`
	MessageCount   int    `json:"message_count"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
