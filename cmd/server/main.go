package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valhalla-backend/internal/config"
	"valhalla-backend/internal/database"
	"valhalla-backend/internal/handlers"
	"valhalla-backend/internal/middleware"
	"valhalla-backend/internal/repository"
	"valhalla-backend/internal/router"
	"valhalla-backend/internal/services"
	"valhalla-backend/internal/websocket"
	"valhalla-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Valhalla Backend...")

	// ──── Step 1: Load Configuration ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ Invalid configuration: %v", err)
	}
	log.Println("✓ Configuration loaded")

	// ──── Step 2: Initialize Firestore Client ────
	fsClient, err := database.NewFirestoreClient(cfg.GCPProjectID, cfg.FirestoreCredentialsFile)
	if err != nil {
		log.Fatalf("✗ Firestore client initialization failed: %v", err)
	}
	defer fsClient.Close()
	log.Println("✓ Firestore client ready")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Seed Store ────
	// A missing store must not keep the server down; chat degrades instead.
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repository.EnsureSeedData(seedCtx, fsClient); err != nil {
		log.Printf("✗ Seed data could not be verified, continuing degraded: %v", err)
	} else {
		log.Println("✓ Store seeded")
	}
	seedCancel()

	// ──── Initialize Repositories ────
	projectRepo := repository.NewCachedProjectRepo(repository.NewProjectRepo(fsClient), cfg.CacheTTL)
	defer projectRepo.Close()
	conversationRepo := repository.NewConversationRepo(fsClient)
	usageRepo := repository.NewUsageRepo(fsClient)
	storeHealth := repository.NewHealthChecker(fsClient)

	// ──── Step 5: Initialize Model Gateway ────
	claudeService, err := services.NewClaudeService(cfg)
	if err != nil {
		log.Fatalf("✗ Model gateway initialization failed: %v", err)
	}
	log.Printf("✓ Model gateway ready (%s @ %s)", cfg.ClaudeModel, cfg.GCPRegion)

	// ──── Initialize Services ────
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret)
	publisher := websocket.NewPublisher(redisClients.Queue)

	// ──── Step 6: Start Usage Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, usageRepo, cfg.UsageWorkers)
	workerPool.Start()
	log.Printf("✓ Usage worker pool started (%d goroutines)", cfg.UsageWorkers)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, sessionAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionAuth)
	chatHandler := handlers.NewChatHandler(claudeService, projectRepo, conversationRepo, workerPool, publisher, cfg.HistoryWindow, cfg.RequestTimeout)
	projectHandler := handlers.NewProjectHandler(projectRepo)
	conversationHandler := handlers.NewConversationHandler(conversationRepo)
	usageHandler := handlers.NewUsageHandler(usageRepo)
	gatewayHandler := handlers.NewGatewayHandler(claudeService)
	healthHandler := handlers.NewHealthHandler(claudeService, storeHealth)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		sessionHandler,
		chatHandler,
		projectHandler,
		conversationHandler,
		usageHandler,
		gatewayHandler,
		healthHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Valhalla Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
