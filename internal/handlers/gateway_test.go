package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"valhalla-backend/internal/models"
)

type stubGatewayStats struct {
	stats  models.GatewayStats
	resets int
}

func (s *stubGatewayStats) Stats() models.GatewayStats { return s.stats }
func (s *stubGatewayStats) ResetStats()                { s.resets++ }

func TestGatewayHandler_Stats(t *testing.T) {
	gw := &stubGatewayStats{stats: models.GatewayStats{
		TotalRequests:   9,
		TotalCost:       0.135,
		LastRequestCost: 0.015,
		LastLatencyMS:   820,
	}}
	h := &GatewayHandler{gateway: gw}

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/gateway/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var stats models.GatewayStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TotalRequests != 9 || stats.LastLatencyMS != 820 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestGatewayHandler_Reset(t *testing.T) {
	gw := &stubGatewayStats{}
	h := &GatewayHandler{gateway: gw}

	rr := httptest.NewRecorder()
	h.Reset(rr, httptest.NewRequest(http.MethodPost, "/api/v1/gateway/stats/reset", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if gw.resets != 1 {
		t.Errorf("expected 1 reset, got %d", gw.resets)
	}
}
