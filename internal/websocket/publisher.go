package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"valhalla-backend/internal/models"
)

// Publisher pushes session-scoped events into Redis pub/sub, where each
// hub's per-session subscriber picks them up for delivery.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := p.redis.Publish(ctx, SessionChannel(sessionID), payload).Err(); err != nil {
		log.Printf("Failed to publish %s event for session %s: %v", msg.Type, sessionID, err)
		return err
	}

	return nil
}
