package models

import (
	"time"
)

// Pricing per 1K tokens, in USD.
const (
	InputTokenPricePer1K  = 0.003
	OutputTokenPricePer1K = 0.015
)

// EstimateCost converts token counts into an approximate dollar cost.
func EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*InputTokenPricePer1K +
		float64(outputTokens)/1000*OutputTokenPricePer1K
}

// UsageRecord captures the accounting for one completed model call.
// Records are append-only and display-only: nothing reads them back to make
// decisions.
type UsageRecord struct {
	ID            string    `json:"id,omitempty" firestore:"-"`
	ProjectID     string    `json:"project_id" firestore:"project_id"`
	Action        string    `json:"action" firestore:"action"` // e.g. "chat"
	Model         string    `json:"model" firestore:"model"`
	InputTokens   int       `json:"input_tokens" firestore:"input_tokens"`
	OutputTokens  int       `json:"output_tokens" firestore:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost" firestore:"estimated_cost"`
	LatencyMS     int64     `json:"latency_ms" firestore:"latency_ms"`
	Timestamp     time.Time `json:"timestamp" firestore:"timestamp"`
}

// UsageStats aggregates records for display. Totals are approximate under
// concurrent writes.
type UsageStats struct {
	ProjectID     string         `json:"project_id,omitempty"`
	Since         time.Time      `json:"since"`
	TotalRequests int            `json:"total_requests"`
	TotalCost     float64        `json:"total_cost"`
	Actions       map[string]int `json:"actions"`
}

// GatewayStats is the in-memory running tally kept by the model gateway.
type GatewayStats struct {
	TotalRequests   int     `json:"total_requests"`
	TotalCost       float64 `json:"total_cost"`
	LastRequestCost float64 `json:"last_request_cost"`
	LastLatencyMS   int64   `json:"last_latency_ms"`
}
