package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"valhalla-backend/internal/models"
	"valhalla-backend/internal/repository"
	"valhalla-backend/internal/websocket"
)

// UsageQueue is the Redis list carrying usage events from the chat path to
// the drain workers.
const UsageQueue = "queue:usage-events"

const maxEventRetries = 3

// Pool drains usage events into the store and pushes a live update to the
// originating session. Chat turns enqueue instead of writing the store
// inline so accounting never adds latency to a reply.
type Pool struct {
	redis       *redis.Client
	usageRepo   *repository.UsageRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, usageRepo *repository.UsageRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		usageRepo:   usageRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue pushes one usage event onto the queue.
func (p *Pool) Enqueue(ctx context.Context, event models.UsageEvent) error {
	if event.EnqueuedAt.IsZero() {
		event.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode usage event: %w", err)
	}
	if err := p.redis.LPush(ctx, UsageQueue, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to enqueue usage event: %w", err)
	}
	return nil
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d usage workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Usage worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, UsageQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var event models.UsageEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			log.Printf("Usage worker %d: failed to parse event: %v", id, err)
			continue
		}

		// One worker per event, even if it got queued twice
		lockKey := "usage_lock:" + event.ID.String()
		locked, err := p.redis.SetNX(ctx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		if _, err := p.usageRepo.Record(ctx, event.Record); err != nil {
			p.handleFailure(&event, err)
		} else {
			p.publishUsageUpdate(ctx, &event)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// publishUsageUpdate pushes the record and the session's running total to
// the session's live channel.
func (p *Pool) publishUsageUpdate(ctx context.Context, event *models.UsageEvent) {
	totalKey := "usage_total:" + event.SessionID.String()
	total, err := p.redis.IncrByFloat(ctx, totalKey, event.Record.EstimatedCost).Result()
	if err != nil {
		total = event.Record.EstimatedCost
	}
	p.redis.Expire(ctx, totalKey, 12*time.Hour)

	msg := models.WSMessage{
		Type: "usage_update",
		Payload: models.UsageUpdate{
			Record:    event.Record,
			TotalCost: total,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.redis.Publish(ctx, websocket.SessionChannel(event.SessionID), string(data))
}

func (p *Pool) handleFailure(event *models.UsageEvent, err error) {
	event.RetryCount++

	if event.RetryCount < maxEventRetries {
		log.Printf("Usage event %s failed (attempt %d): %v - retrying", event.ID, event.RetryCount, err)

		data, _ := json.Marshal(event)
		time.AfterFunc(retryBackoff(event.RetryCount), func() {
			p.redis.LPush(context.Background(), UsageQueue, string(data))
		})
		return
	}

	// Usage records are display-only; dropping one after the retry budget
	// is acceptable as long as it leaves a trace.
	log.Printf("Usage event %s dropped after %d attempts: %v", event.ID, event.RetryCount, err)
}

func retryBackoff(retryCount int) time.Duration {
	return time.Duration(1<<uint(retryCount)) * time.Second
}
