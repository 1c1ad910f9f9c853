package handlers

import (
	"encoding/json"
	"net/http"

	"valhalla-backend/internal/models"
	"valhalla-backend/internal/repository"
	"valhalla-backend/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleServiceError maps the gateway and store taxonomies onto HTTP.
// Gateway auth failures are the server's credentials, not the caller's, so
// they surface as 502 instead of 401.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.InvalidOptionsError:
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_OPTIONS", e.Message, r))
	case *services.AuthError:
		writeJSON(w, http.StatusBadGateway, errorResp("GATEWAY_AUTH_ERROR", e.Message, r))
	case *services.TransientError:
		writeJSON(w, http.StatusServiceUnavailable, errorResp("MODEL_UNAVAILABLE", e.Message, r))
	case *services.UpstreamError:
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", e.Message, r))
	case *repository.InvalidArgumentError:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", e.Message, r))
	case *repository.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *repository.StoreUnavailableError:
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORE_UNAVAILABLE", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
