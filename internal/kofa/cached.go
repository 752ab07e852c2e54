package kofa

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CachedGet serves a warm entry to onCacheHit before the request is sent,
// then always fetches endpoint and returns the live value. A successful
// fetch overwrites the entry; a failed one leaves it untouched.
func CachedGet[T any](ctx context.Context, c *Client, endpoint, cacheKey string, onCacheHit func(T)) (T, error) {
	var zero T

	if onCacheHit != nil {
		if cached, ok := Peek[T](ctx, c.cache, cacheKey, c.logger); ok {
			onCacheHit(cached)
		}
	}

	var live T
	if err := c.Call(ctx, http.MethodGet, endpoint, nil, &live); err != nil {
		return zero, err
	}

	remember(ctx, c.cache, cacheKey, live, c.logger)
	return live, nil
}

// Peek decodes the cached payload for key. Store and decode errors count as
// a miss.
func Peek[T any](ctx context.Context, store CacheStore, key string, logger *zap.Logger) (T, bool) {
	var zero T
	if store == nil {
		return zero, false
	}

	entry, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(entry.Payload, &value); err != nil {
		logger.Warn("cached payload undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	logger.Debug("cache hit", zap.String("key", key), zap.Time("stored_at", entry.Timestamp))
	return value, true
}

func remember(ctx context.Context, store CacheStore, key string, value any, logger *zap.Logger) {
	if store == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	entry := CachedValue{Key: key, Payload: payload, Timestamp: time.Now()}
	if err := store.Set(ctx, entry); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
