package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"

	"valhalla-backend/internal/middleware"
	"valhalla-backend/internal/models"
)

// SessionHandler mints anonymous session tokens. A session carries no
// identity; it only gives the browser a stable key for usage totals and
// websocket delivery.
type SessionHandler struct {
	auth *middleware.SessionAuth
}

func NewSessionHandler(auth *middleware.SessionAuth) *SessionHandler {
	return &SessionHandler{auth: auth}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.New()

	token, err := h.auth.GenerateSessionToken(sessionID)
	if err != nil {
		log.Printf("Failed to sign session token: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Could not create session", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.Session{
		ID:        sessionID,
		Token:     token,
		ExpiresIn: int(middleware.SessionTokenTTL.Seconds()),
	})
}
