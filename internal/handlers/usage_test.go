package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"valhalla-backend/internal/models"
	"valhalla-backend/internal/repository"
)

type stubUsageReader struct {
	stats *models.UsageStats
	err   error

	calls       int
	lastProject string
	lastSince   time.Time
}

func (s *stubUsageReader) Stats(ctx context.Context, projectID string, since time.Time) (*models.UsageStats, error) {
	s.calls++
	s.lastProject = projectID
	s.lastSince = since
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func TestUsageHandler_Stats_DefaultWindow(t *testing.T) {
	store := &stubUsageReader{stats: &models.UsageStats{TotalRequests: 12, TotalCost: 0.42}}
	h := &UsageHandler{usage: store}

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if store.lastProject != "" {
		t.Errorf("expected all-projects query, got %q", store.lastProject)
	}

	wantSince := time.Now().UTC().AddDate(0, 0, -1)
	if diff := store.lastSince.Sub(wantSince); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected a one-day window, got since=%s", store.lastSince)
	}

	var stats models.UsageStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TotalRequests != 12 {
		t.Errorf("expected 12 requests, got %d", stats.TotalRequests)
	}
}

func TestUsageHandler_Stats_ProjectAndDays(t *testing.T) {
	store := &stubUsageReader{stats: &models.UsageStats{}}
	h := &UsageHandler{usage: store}

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/usage?project_id=Atlas&days=7", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if store.lastProject != "atlas" {
		t.Errorf("expected project filter to be slugified, got %q", store.lastProject)
	}

	wantSince := time.Now().UTC().AddDate(0, 0, -7)
	if diff := store.lastSince.Sub(wantSince); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected a seven-day window, got since=%s", store.lastSince)
	}
}

func TestUsageHandler_Stats_RejectsBadDays(t *testing.T) {
	for _, days := range []string{"0", "-2", "week"} {
		store := &stubUsageReader{}
		h := &UsageHandler{usage: store}

		rr := httptest.NewRecorder()
		h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/usage?days="+days, nil))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("days=%s: expected status %d, got %d", days, http.StatusBadRequest, rr.Code)
		}
		if store.calls != 0 {
			t.Errorf("days=%s: store should not be queried", days)
		}
	}
}

func TestUsageHandler_Stats_StoreUnavailable(t *testing.T) {
	store := &stubUsageReader{err: &repository.StoreUnavailableError{Message: "firestore unreachable"}}
	h := &UsageHandler{usage: store}

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
