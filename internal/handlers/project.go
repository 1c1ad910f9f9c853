package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"valhalla-backend/internal/models"
)

type projectStore interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	UpdateStatus(ctx context.Context, id, status string, updates map[string]string) (*models.Project, error)
}

var allowedProjectStatuses = map[string]bool{
	"Live":     true,
	"Building": true,
	"Paused":   true,
	"Archived": true,
}

type ProjectHandler struct {
	projects projectStore
}

func NewProjectHandler(projects projectStore) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := models.Slugify(chi.URLParam(r, "id"))

	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// UpdateStatus handles PUT /api/v1/projects/{id}/status
func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := models.Slugify(chi.URLParam(r, "id"))

	var req models.UpdateProjectStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	status := strings.TrimSpace(req.Status)
	if !allowedProjectStatuses[status] {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Status must be one of: Live, Building, Paused, Archived", r))
		return
	}

	project, err := h.projects.UpdateStatus(r.Context(), id, status, req.Updates)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}
