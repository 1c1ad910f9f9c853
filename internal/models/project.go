package models

import (
	"strings"
	"time"
)

// DefaultProjectID is the seeded catch-all project a chat falls back to
// when the request names none.
const DefaultProjectID = "general"

type Project struct {
	ID          string            `json:"id" firestore:"-"`
	Name        string            `json:"name" firestore:"name"`
	Status      string            `json:"status" firestore:"status"` // "Live" | "Building" | "Paused" | "Archived"
	Description string            `json:"description" firestore:"description"`
	Metadata    map[string]string `json:"metadata,omitempty" firestore:"metadata"`
	CreatedAt   time.Time         `json:"created_at" firestore:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" firestore:"updated_at"`
}

type UpdateProjectStatusRequest struct {
	Status  string            `json:"status"`
	Updates map[string]string `json:"updates,omitempty"`
}

// Slugify turns a display name into a document ID: lowercased,
// spaces replaced with underscores.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
