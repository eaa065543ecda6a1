package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/models"
)

const keyPrefix = "dexter:session:"

// RedisStore keeps sessions as JSON documents that expire after inactivity.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		lockTTL: DefaultTurnLockTTL,
	}
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load returns models.ErrSessionNotFound for unknown or expired sessions.
func (s *RedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session and any turn lock it holds.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id), lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AcquireTurn takes the per-session turn lock.
func (s *RedisStore) AcquireTurn(ctx context.Context, id string) error {
	ok, err := s.client.SetNX(ctx, lockKey(id), time.Now().UTC().Format(time.RFC3339Nano), s.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	if !ok {
		return models.ErrTurnInProgress
	}
	return nil
}

// ReleaseTurn drops the turn lock.
func (s *RedisStore) ReleaseTurn(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to release turn lock: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func lockKey(id string) string {
	return keyPrefix + id + ":turn"
}
