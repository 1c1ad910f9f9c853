package models

import (
	"time"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role               string    `json:"role" firestore:"role"` // "user" or "assistant"
	Content            string    `json:"content" firestore:"content"`
	Timestamp          time.Time `json:"timestamp" firestore:"timestamp"`
	TokenCountEstimate int       `json:"token_count_estimate" firestore:"token_count_estimate"`
}

// EstimateTokens approximates a token count from text length. The provider
// reports exact counts after a call; this heuristic (1 token per 4 chars,
// minimum 1 for non-empty text) fills in everywhere else.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	ProjectID      string       `json:"project_id"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Message        string       `json:"message"`
	Options        *ChatOptions `json:"options,omitempty"`
}

// ChatOptions carries per-request generation overrides. Zero values fall
// back to the server defaults.
type ChatOptions struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ChatResponse is the reply from a completed chat turn.
type ChatResponse struct {
	ConversationID string       `json:"conversation_id"`
	Reply          string       `json:"reply"`
	Usage          *UsageRecord `json:"usage,omitempty"`
	Persisted      bool         `json:"persisted"`
	Warning        string       `json:"warning,omitempty"`
}
