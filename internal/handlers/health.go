package handlers

import (
	"context"
	"net/http"
	"time"

	"valhalla-backend/internal/models"
)

// healthTimeout caps the whole health probe. The gateway check is a real
// model call, so this stays well under typical LB timeouts.
const healthTimeout = 10 * time.Second

type gatewayProber interface {
	HealthCheck(ctx context.Context) models.GatewayHealth
}

type storeProber interface {
	Check(ctx context.Context) models.StoreHealth
}

type HealthHandler struct {
	gateway gatewayProber
	store   storeProber
}

func NewHealthHandler(gateway gatewayProber, store storeProber) *HealthHandler {
	return &HealthHandler{gateway: gateway, store: store}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	gw := h.gateway.HealthCheck(ctx)
	st := h.store.Check(ctx)

	status := "ok"
	if !gw.Healthy || !st.Healthy {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:  status,
		Gateway: gw,
		Store:   st,
	})
}
