package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on a single Redis list.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedis creates a queue backed by the Redis instance at addr, using key as
// the list name.
func NewRedis(addr, key string) *RedisQueue {
	return &RedisQueue{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Ping verifies the backend is reachable. Called once at startup so a
// misconfigured REDIS_HOST fails fast instead of silently dropping items.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, item Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding queue item: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (Item, bool, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// BLPOP returns [key, value].
	if len(res) != 2 {
		return Item{}, false, fmt.Errorf("unexpected BLPOP reply length %d", len(res))
	}

	var item Item
	if err := json.Unmarshal([]byte(res[1]), &item); err != nil {
		return Item{}, false, fmt.Errorf("decoding queue item: %w", err)
	}
	return item, true, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
