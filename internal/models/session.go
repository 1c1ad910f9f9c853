package models

import (
	"github.com/google/uuid"
)

// Session identifies one browser's connection affinity. It carries no user
// identity; it scopes rate limits, websocket delivery, and usage events.
type Session struct {
	ID        uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expires_in"`
}

// HealthStatus is the aggregate health report.
type HealthStatus struct {
	Status  string        `json:"status"` // "ok" | "degraded"
	Gateway GatewayHealth `json:"gateway"`
	Store   StoreHealth   `json:"store"`
}

type GatewayHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Model     string `json:"model"`
	Detail    string `json:"detail,omitempty"`
}

type StoreHealth struct {
	Healthy bool   `json:"healthy"`
	Seeded  bool   `json:"seeded"`
	Detail  string `json:"detail,omitempty"`
}
