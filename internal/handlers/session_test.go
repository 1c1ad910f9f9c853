package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"valhalla-backend/internal/middleware"
	"valhalla-backend/internal/models"
)

func TestSessionHandler_Create(t *testing.T) {
	auth := middleware.NewSessionAuth("test-secret")
	h := NewSessionHandler(auth)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	var session models.Session
	if err := json.NewDecoder(rr.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a token")
	}
	if session.ExpiresIn != int(middleware.SessionTokenTTL.Seconds()) {
		t.Errorf("expected expires_in %d, got %d", int(middleware.SessionTokenTTL.Seconds()), session.ExpiresIn)
	}

	parsed, err := auth.ParseSessionID(session.Token)
	if err != nil {
		t.Fatalf("token should parse with the issuing secret: %v", err)
	}
	if parsed != session.ID {
		t.Errorf("token session %s does not match response id %s", parsed, session.ID)
	}
}
