package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL expires idle conversations; 0 keeps them forever.
	TTL time.Duration
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "ragcontext:history:",
		TTL:       time.Hour,
	}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}
	return client, nil
}

// RedisBuffer is a Memory stored as a Redis list, shared between processes.
type RedisBuffer struct {
	client   redis.Cmdable
	key      string
	capacity int
	ttl      time.Duration
}

// NewRedisBuffer returns the memory of one session.
func NewRedisBuffer(client redis.Cmdable, cfg *RedisConfig, sessionID string, capacity int) *RedisBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisBuffer{
		client:   client,
		key:      cfg.KeyPrefix + sessionID,
		capacity: capacity,
		ttl:      cfg.TTL,
	}
}

func (b *RedisBuffer) Append(ctx context.Context, turn ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	payload, err := json.Marshal(turn)
	if err != nil {
		return errors.Wrap(err, "failed to encode turn")
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, b.key, payload)
		pipe.LTrim(ctx, b.key, int64(-b.capacity), -1)
		if b.ttl > 0 {
			pipe.Expire(ctx, b.key, b.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to append turn")
	}
	return nil
}

func (b *RedisBuffer) LastN(ctx context.Context, n int) ([]ConversationTurn, error) {
	if n <= 0 {
		return []ConversationTurn{}, nil
	}
	values, err := b.client.LRange(ctx, b.key, int64(-n), -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read turns")
	}

	turns := make([]ConversationTurn, 0, len(values))
	for _, v := range values {
		var turn ConversationTurn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, errors.Wrap(err, "failed to decode turn")
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (b *RedisBuffer) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return errors.Wrap(err, "failed to clear turns")
	}
	return nil
}

func (b *RedisBuffer) Len(ctx context.Context) (int, error) {
	n, err := b.client.LLen(ctx, b.key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count turns")
	}
	return int(n), nil
}
