package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"valhalla-backend/internal/models"
)

type conversationStore interface {
	AppendMessage(ctx context.Context, conversationID, projectID string, msg models.ChatMessage) (*models.Conversation, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error)
	LatestForProject(ctx context.Context, projectID string) (*models.Conversation, error)
}

type ConversationHandler struct {
	conversations conversationStore
}

func NewConversationHandler(conversations conversationStore) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Messages handles GET /api/v1/conversations/{id}/messages?limit=N
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(conversationID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a positive integer", r))
		return
	}

	messages, err := h.conversations.History(r.Context(), conversationID, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

// Latest handles GET /api/v1/projects/{id}/conversations/latest
func (h *ConversationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	projectID := models.Slugify(chi.URLParam(r, "id"))

	conv, err := h.conversations.LatestForProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
