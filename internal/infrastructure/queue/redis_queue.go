package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/config"
)

// ErrEmpty is returned by Dequeue when no task arrived within the poll window.
var ErrEmpty = errors.New("queue is empty")

// TaskQueue is the inbound-event queue. The webhook handler enqueues raw
// update payloads and acknowledges the transport immediately; workers dequeue
// and process them asynchronously.
type TaskQueue interface {
	Enqueue(ctx context.Context, payload []byte) error
	Dequeue(ctx context.Context) ([]byte, error)
}

// RedisQueue implements TaskQueue on a Redis list (LPUSH producer, blocking
// BRPOP consumer).
type RedisQueue struct {
	client  *redis.Client
	key     string
	popWait time.Duration
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{
		client:  client,
		key:     key,
		popWait: 2 * time.Second,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks for at most the poll window and returns ErrEmpty when it
// elapses without a task, so callers can re-check their context.
func (q *RedisQueue) Dequeue(ctx context.Context) ([]byte, error) {
	result, err := q.client.BRPop(ctx, q.popWait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, ErrEmpty
	}
	return []byte(result[1]), nil
}

var _ TaskQueue = (*RedisQueue)(nil)
