package kofa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kofa_admin/internal/config"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache keys shared by the dashboard and list commands.
const (
	CacheKeyProducts      = "products"
	CacheKeyOrders        = "orders"
	CacheKeyProfitSummary = "profit_summary"
)

const defaultRedisPrefix = "kofa:cache:"

// CachedValue is one cached GET payload.
type CachedValue struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// CacheStore holds CachedValues keyed by name. Entries expire after the
// store's TTL; otherwise the last write for a key wins.
type CacheStore interface {
	Get(ctx context.Context, key string) (CachedValue, bool, error)
	Set(ctx context.Context, value CachedValue) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// NewCacheStore picks redis when a URL is configured, the in-process store
// otherwise.
func NewCacheStore(cfg config.Config, logger *zap.Logger) (CacheStore, error) {
	redisURL := strings.TrimSpace(cfg.CacheRedisURL)
	if redisURL == "" {
		return NewMemoryCache(cfg.CacheTTL), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache redis url: %w", err)
	}
	logger.Named("kofa").Info("using redis cache", zap.String("addr", opts.Addr), zap.Duration("ttl", cfg.CacheTTL))
	return NewRedisCache(redis.NewClient(opts), cfg.CacheTTL), nil
}

type MemoryCache struct {
	entries *expirable.LRU[string, CachedValue]
}

// NewMemoryCache returns an unbounded process-local store.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	return &MemoryCache{
		entries: expirable.NewLRU[string, CachedValue](0, nil, ttl),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (CachedValue, bool, error) {
	value, ok := m.entries.Get(key)
	return value, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, value CachedValue) error {
	m.entries.Add(value.Key, value)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *MemoryCache) Clear(_ context.Context) error {
	m.entries.Purge()
	return nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) (CachedValue, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedValue{}, false, nil
	}
	if err != nil {
		return CachedValue{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var value CachedValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return CachedValue{}, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, value CachedValue) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", value.Key, err)
	}
	if err := r.client.Set(ctx, r.prefix+value.Key, encoded, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", value.Key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisCache) Clear(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
