// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zheric/setgame/internal/models"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "setgame_actions"

// Publisher pushes game action records onto a Redis list for the historian.
type Publisher struct {
	Client *redis.Client
	Queue  string
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewPublisher wraps a client; an empty queue name falls back to DefaultQueueName.
func NewPublisher(client *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{Client: client, Queue: queue}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (p *Publisher) PublishGameAction(ctx context.Context, record models.ActionRecord) error {
	data, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := p.Client.RPush(ctx, p.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.Queue, err)
	}
	return nil
}

// EncodeRecord is the wire format shared with the historian.
func EncodeRecord(record models.ActionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a queued record.
func DecodeRecord(data []byte) (models.ActionRecord, error) {
	var rec models.ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid action record: %w", err)
	}
	return rec, nil
}
