package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps session tokens in Redis so they survive a restart.
type RedisStore struct {
	client *redis.Client
	cfg    *RedisConfig
	logger zerolog.Logger
}

// NewRedisStore creates a session store backed by Redis.
func NewRedisStore(cfg *RedisConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "redis-sessions").Logger(),
	}
}

// Ping verifies the Redis connection is usable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}
	s.logger.Info().Str("redis_addr", s.cfg.Addr).Msg("redis session store connected")
	return nil
}

// Create issues a fresh token for sess with the configured TTL.
func (s *RedisStore) Create(ctx context.Context, sess Session) (string, error) {
	token := uuid.New().String()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.cfg.Prefix+token, data, s.cfg.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token.
func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	data, err := s.client.Get(ctx, s.cfg.Prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Delete revokes a token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.cfg.Prefix+token).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
