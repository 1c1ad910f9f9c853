package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"valhalla-backend/internal/middleware"
	"valhalla-backend/internal/models"
	"valhalla-backend/internal/services"
)

// persistTimeout bounds the detached write of a completed turn. The browser
// may disconnect while the model is replying; the turn is still saved.
const persistTimeout = 15 * time.Second

type chatGateway interface {
	Complete(ctx context.Context, system string, history []models.ChatMessage, opts *models.ChatOptions) (string, *models.UsageRecord, error)
}

type usageQueue interface {
	Enqueue(ctx context.Context, event models.UsageEvent) error
}

type eventPublisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) error
}

// ChatHandler drives a full chat turn: project context, windowed history,
// model call, persistence, usage accounting.
type ChatHandler struct {
	gateway       chatGateway
	projects      projectStore
	conversations conversationStore
	usage         usageQueue
	events        eventPublisher

	historyWindow  int
	requestTimeout time.Duration
}

func NewChatHandler(gateway chatGateway, projects projectStore, conversations conversationStore, usage usageQueue, events eventPublisher, historyWindow int, requestTimeout time.Duration) *ChatHandler {
	return &ChatHandler{
		gateway:        gateway,
		projects:       projects,
		conversations:  conversations,
		usage:          usage,
		events:         events,
		historyWindow:  historyWindow,
		requestTimeout: requestTimeout,
	}
}

// Send handles POST /api/v1/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message must not be empty", r))
		return
	}

	projectID := models.Slugify(req.ProjectID)
	if projectID == "" {
		projectID = models.DefaultProjectID
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.New().String()
	} else if _, err := uuid.Parse(conversationID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "conversation_id must be a UUID", r))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	warning := ""
	history, err := h.conversations.History(ctx, conversationID, h.historyWindow)
	if err != nil {
		// A turn without prior context beats no turn at all.
		log.Printf("History unavailable for conversation %s: %v", conversationID, err)
		history = nil
		warning = "Conversation history was unavailable; replying without prior context"
	}

	userMsg := models.ChatMessage{Role: "user", Content: message}

	reply, rec, err := h.gateway.Complete(ctx, services.BuildSystemPrompt(project), append(history, userMsg), req.Options)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rec.ProjectID = projectID
	rec.Action = "chat"

	// Persist on a detached context so a dropped browser connection cannot
	// lose a turn the model already answered.
	persistCtx, persistCancel := context.WithTimeout(context.Background(), persistTimeout)
	defer persistCancel()

	conv := h.persistTurn(persistCtx, conversationID, projectID, userMsg, models.ChatMessage{Role: "assistant", Content: reply})
	persisted := conv != nil
	if !persisted {
		warning = "Reply was generated but could not be saved"
	}

	h.recordUsage(persistCtx, r, *rec)
	if persisted {
		h.notifySaved(persistCtx, r, conv)
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		ConversationID: conversationID,
		Reply:          reply,
		Usage:          rec,
		Persisted:      persisted,
		Warning:        warning,
	})
}

func (h *ChatHandler) persistTurn(ctx context.Context, conversationID, projectID string, userMsg, assistantMsg models.ChatMessage) *models.Conversation {
	if _, err := h.conversations.AppendMessage(ctx, conversationID, projectID, userMsg); err != nil {
		log.Printf("Failed to append user turn to conversation %s: %v", conversationID, err)
		return nil
	}
	conv, err := h.conversations.AppendMessage(ctx, conversationID, projectID, assistantMsg)
	if err != nil {
		log.Printf("Failed to append assistant turn to conversation %s: %v", conversationID, err)
		return nil
	}
	return conv
}

func (h *ChatHandler) recordUsage(ctx context.Context, r *http.Request, rec models.UsageRecord) {
	event := models.UsageEvent{
		ID:        uuid.New(),
		SessionID: middleware.GetSessionID(r.Context()),
		Record:    rec,
	}
	if err := h.usage.Enqueue(ctx, event); err != nil {
		log.Printf("Failed to enqueue usage event for project %s: %v", rec.ProjectID, err)
	}
}

func (h *ChatHandler) notifySaved(ctx context.Context, r *http.Request, conv *models.Conversation) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == uuid.Nil {
		return
	}
	h.events.Publish(ctx, sessionID, models.WSMessage{
		Type: "conversation_saved",
		Payload: models.ConversationSaved{
			ConversationID: conv.ID,
			ProjectID:      conv.ProjectID,
			MessageCount:   conv.MessageCount,
		},
	})
}
