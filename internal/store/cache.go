package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"expopush/internal/config"
	"expopush/internal/types"
)

const tokenKeyPrefix = "push:tokens:"

// ErrCacheMiss is returned by CacheClient.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheClient is the subset of cache commands the token store needs.
type CacheClient interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisCacheClient adapts go-redis to CacheClient, storing values as JSON.
type RedisCacheClient struct {
	rdb *redis.Client
}

var _ CacheClient = (*RedisCacheClient)(nil)

// NewRedisCacheClient connects to Redis and pings it so a bad address fails
// at startup rather than on first lookup.
func NewRedisCacheClient(ctx context.Context, cfg config.CacheConfig) (*RedisCacheClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password.Unmask(),
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCacheClient{rdb: rdb}, nil
}

func (c *RedisCacheClient) Get(ctx context.Context, key string, dest any) error {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

func (c *RedisCacheClient) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisCacheClient) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *RedisCacheClient) Close() error {
	return c.rdb.Close()
}

// CachedTokenStore is a read-aside decorator for any TokenStore. Cache
// failures never fail a lookup; the store falls back to the inner source
// and logs the reason.
type CachedTokenStore struct {
	inner  TokenStore
	cache  CacheClient
	ttl    time.Duration
	logger types.Logger
}

var _ TokenStore = (*CachedTokenStore)(nil)

func NewCachedTokenStore(inner TokenStore, cache CacheClient, ttl time.Duration, logger types.Logger) (*CachedTokenStore, error) {
	if inner == nil {
		return nil, errors.New("inner token store is required")
	}
	if cache == nil {
		return nil, errors.New("cache client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &CachedTokenStore{inner: inner, cache: cache, ttl: ttl, logger: logger}, nil
}

func (s *CachedTokenStore) GetTokens(ctx context.Context, userID string) ([]types.PushToken, error) {
	key := tokenKey(userID)

	var cached []types.PushToken
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("token cache read failed", "user_id", userID, "error", err.Error())
	}

	tokens, err := s.inner.GetTokens(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, tokens, s.ttl); err != nil {
		s.logger.Warn("token cache write failed", "user_id", userID, "error", err.Error())
	}

	return tokens, nil
}

func (s *CachedTokenStore) RemoveTokens(ctx context.Context, userID string, tokens []types.PushToken) error {
	if err := s.inner.RemoveTokens(ctx, userID, tokens); err != nil {
		return err
	}

	if err := s.cache.Del(ctx, tokenKey(userID)); err != nil {
		s.logger.Warn("token cache invalidation failed", "user_id", userID, "error", err.Error())
	}
	return nil
}

func tokenKey(userID string) string {
	return tokenKeyPrefix + userID
}
