package handlers

import (
	"net/http"

	"valhalla-backend/internal/models"
)

type gatewayStats interface {
	Stats() models.GatewayStats
	ResetStats()
}

// GatewayHandler exposes the in-process model gateway counters.
type GatewayHandler struct {
	gateway gatewayStats
}

func NewGatewayHandler(gateway gatewayStats) *GatewayHandler {
	return &GatewayHandler{gateway: gateway}
}

// Stats handles GET /api/v1/gateway/stats
func (h *GatewayHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gateway.Stats())
}

// Reset handles POST /api/v1/gateway/stats/reset
func (h *GatewayHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.gateway.ResetStats()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Gateway stats reset"})
}
