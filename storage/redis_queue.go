package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps the frontier in Redis: a list of JSON-encoded targets and
// a set of normalized visited URLs. SADD gives MarkVisited its atomicity.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

type RedisQueueOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces the keys, typically one prefix per crawl run.
	Prefix string
}

func NewRedisQueue(ctx context.Context, opts RedisQueueOptions) (*RedisQueue, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisQueueWithClient(client, opts.Prefix), nil
}

func newRedisQueueWithClient(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "bfscrawl"
	}
	return &RedisQueue{client: client, prefix: prefix}
}

func (q *RedisQueue) pendingKey() string {
	return q.prefix + ":pending"
}

func (q *RedisQueue) visitedKey() string {
	return q.prefix + ":visited"
}

func (q *RedisQueue) Enqueue(ctx context.Context, t Target) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal target: %w", err)
	}

	if err := q.client.RPush(ctx, q.pendingKey(), string(payload)).Err(); err != nil {
		return fmt.Errorf("failed to push target: %w", err)
	}
	return nil
}

func (q *RedisQueue) DequeueBatch(ctx context.Context, n int) ([]Target, error) {
	if n < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}

	vals, err := q.client.LPopCount(ctx, q.pendingKey(), n).Result()
	if errors.Is(err, redis.Nil) {
		return []Target{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop batch: %w", err)
	}

	batch := make([]Target, 0, len(vals))
	for _, v := range vals {
		var t Target
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target: %w", err)
		}
		batch = append(batch, t)
	}
	return batch, nil
}

func (q *RedisQueue) MarkVisited(ctx context.Context, u string) (bool, error) {
	key, err := normalizeURL(u)
	if err != nil {
		return false, fmt.Errorf("failed to normalize URL: %w", err)
	}

	added, err := q.client.SAdd(ctx, q.visitedKey(), key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark visited: %w", err)
	}
	return added == 1, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count pending targets: %w", err)
	}
	return int(n), nil
}

func (q *RedisQueue) Visited(ctx context.Context) ([]string, error) {
	urls, err := q.client.SMembers(ctx, q.visitedKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list visited: %w", err)
	}
	sort.Strings(urls)
	return urls, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
