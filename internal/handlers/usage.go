package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"valhalla-backend/internal/models"
)

type usageReader interface {
	Stats(ctx context.Context, projectID string, since time.Time) (*models.UsageStats, error)
}

type UsageHandler struct {
	usage usageReader
}

func NewUsageHandler(usage usageReader) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Stats handles GET /api/v1/usage?project_id=&days=
func (h *UsageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID := models.Slugify(r.URL.Query().Get("project_id"))

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "days must be a positive integer", r))
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	stats, err := h.usage.Stats(r.Context(), projectID, since)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
