package historian

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zheric/setgame/internal/cache"
)

// RedisQueue pops from the list the cache.Publisher pushes to.
type RedisQueue struct {
	Client *redis.Client
	Name   string
}

// NewRedisQueue wraps a client; an empty name uses cache.DefaultQueueName.
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	if name == "" {
		name = cache.DefaultQueueName
	}
	return &RedisQueue{Client: client, Name: name}
}

// Pop blocks for up to timeout with BLPop.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.Client.BLPop(ctx, timeout, q.Name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res[0] is the queue name and res[1] the payload
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}
