package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jo-hoe/photolog/internal/entry"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "photolog:session:"

type RedisFactory struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFactory connects to redis. connectionString is either a redis:// URL or host:port.
func NewRedisFactory(connectionString string, ttl time.Duration) (*RedisFactory, error) {
	var options *redis.Options
	if strings.HasPrefix(connectionString, "redis://") || strings.HasPrefix(connectionString, "rediss://") {
		parsed, err := redis.ParseURL(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		options = parsed
	} else {
		options = &redis.Options{Addr: connectionString}
	}

	client := redis.NewClient(options)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", options.Addr, err)
	}

	return &RedisFactory{client: client, ttl: ttl}, nil
}

func (f *RedisFactory) Open(sessionID string) entry.Backend {
	return &redisBackend{
		client: f.client,
		key:    redisKeyPrefix + sessionID + ":entries",
		ttl:    f.ttl,
	}
}

func (f *RedisFactory) Close() error {
	return f.client.Close()
}

type redisBackend struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (b *redisBackend) Append(ctx context.Context, e entry.Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	// push and TTL refresh land together so a failed append leaves no partial state
	pipe := b.client.TxPipeline()
	pipe.RPush(ctx, b.key, payload)
	if b.ttl > 0 {
		pipe.Expire(ctx, b.key, b.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *redisBackend) List(ctx context.Context) ([]entry.Entry, error) {
	raw, err := b.client.LRange(ctx, b.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]entry.Entry, 0, len(raw))
	for i, item := range raw {
		var e entry.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Touch pushes the key's expiry out by another ttl. A missing key is left alone.
func (b *redisBackend) Touch(ctx context.Context) error {
	if b.ttl <= 0 {
		return nil
	}
	return b.client.Expire(ctx, b.key, b.ttl).Err()
}

func (b *redisBackend) Discard(ctx context.Context) error {
	return b.client.Del(ctx, b.key).Err()
}
