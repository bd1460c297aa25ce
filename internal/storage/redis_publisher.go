/**
 * Redis Reading Publisher
 *
 * Publishes every cycle's reading on <prefix>:events and keeps the most
 * recent one under <prefix>:latest. Nothing older than the latest reading
 * is retained.
 */

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

// PublisherConfig holds publisher configuration
type PublisherConfig struct {
	RedisURL  string
	KeyPrefix string
}

// ReadingPublisher fans readings out through Redis
type ReadingPublisher struct {
	client    *redis.Client
	channel   string
	latestKey string
}

// NewReadingPublisher connects to Redis and verifies the connection
func NewReadingPublisher(ctx context.Context, cfg *PublisherConfig) (*ReadingPublisher, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.KeyPrefix == "" {
		return nil, fmt.Errorf("KeyPrefix is required")
	}

	// Parse Redis URL
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newReadingPublisher(client, cfg.KeyPrefix), nil
}

func newReadingPublisher(client *redis.Client, prefix string) *ReadingPublisher {
	return &ReadingPublisher{
		client:    client,
		channel:   fmt.Sprintf("%s:events", prefix),
		latestKey: fmt.Sprintf("%s:latest", prefix),
	}
}

// Name identifies the sink in logs
func (p *ReadingPublisher) Name() string {
	return "redis"
}

// Publish stores the event as the latest reading and broadcasts it
func (p *ReadingPublisher) Publish(ctx context.Context, event *processor.ReadingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, p.latestKey, data, 0)
	pipe.Publish(ctx, p.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (p *ReadingPublisher) Close() error {
	return p.client.Close()
}
