package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"valhalla-backend/internal/handlers"
	"valhalla-backend/internal/middleware"
	"valhalla-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	projectHandler *handlers.ProjectHandler,
	conversationHandler *handlers.ConversationHandler,
	usageHandler *handlers.UsageHandler,
	gatewayHandler *handlers.GatewayHandler,
	healthHandler *handlers.HealthHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Session minting is cheap to abuse; chat burns real model budget.
	sessionLimiter := middleware.NewRateLimiter(10, time.Minute)
	chatLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes (public) ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(sessionLimiter.Middleware)
			r.Post("/", sessionHandler.Create)
		})

		// ──── Chat ────
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Use(chatLimiter.Middleware)
			r.Post("/chat", chatHandler.Send)
		})

		// ──── Project Routes ────
		r.Route("/projects", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}/status", projectHandler.UpdateStatus)
			r.Get("/{id}/conversations/latest", conversationHandler.Latest)
		})

		// ──── Conversation Routes ────
		r.Route("/conversations", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/{id}/messages", conversationHandler.Messages)
		})

		// ──── Usage & Gateway Stats ────
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/usage", usageHandler.Stats)
			r.Get("/gateway/stats", gatewayHandler.Stats)
			r.Post("/gateway/stats/reset", gatewayHandler.Reset)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
