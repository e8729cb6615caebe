package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/usecase/pipeline"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

const publishTimeout = 2 * time.Second

// Bus fans pipeline events out to in-process subscribers and mirrors
// them to a Redis channel per call so external consumers (desktop
// overlay, coaching dashboards) can follow along. Delivery is
// fire-and-forget: a slow subscriber loses events rather than stalling
// the pipeline.
type Bus struct {
	redis  *redis.Client
	logger *zap.Logger

	mu   sync.RWMutex
	subs []chan pipeline.Event
}

// NewBus creates the event bus. redisClient may be nil for single
// process setups.
func NewBus(redisClient *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{redis: redisClient, logger: logger}
}

// NewRedisClient connects to Redis using the application configuration
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Subscribe registers an in-process consumer. The returned channel is
// closed by Close.
func (b *Bus) Subscribe(buffer int) <-chan pipeline.Event {
	ch := make(chan pipeline.Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers one event to every subscriber without blocking and
// mirrors it to Redis in the background.
func (b *Bus) Publish(event pipeline.Event) {
	b.mu.RLock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.Debug("subscriber buffer full, dropping event",
					zap.String("type", string(event.Type)),
				)
			}
		}
	}
	b.mu.RUnlock()

	if b.redis != nil {
		go b.mirror(event)
	}
}

func (b *Bus) mirror(event pipeline.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("failed to encode event for redis", zap.Error(err))
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	channel := fmt.Sprintf("call:%s:events", event.CallID)
	if err := b.redis.Publish(ctx, channel, payload).Err(); err != nil && b.logger != nil {
		b.logger.Warn("failed to mirror event to redis",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

// Close tears down all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
