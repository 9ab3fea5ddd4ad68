package routes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richxcame/map-directions/pkg/cache"
	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/tracing"
	"go.uber.org/zap"
)

// CachedFetcher serves repeated requests from Redis. Only successful
// responses are stored.
type CachedFetcher struct {
	next      Fetcher
	cache     *cache.Manager
	ttl       time.Duration
	fieldMask string
}

var _ Fetcher = (*CachedFetcher)(nil)

// NewCachedFetcher wraps next. fieldMask must match the one next sends so that
// requests with different masks do not share entries.
func NewCachedFetcher(next Fetcher, manager *cache.Manager, ttl time.Duration, fieldMask string) *CachedFetcher {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &CachedFetcher{next: next, cache: manager, ttl: ttl, fieldMask: fieldMask}
}

// Configured implements Fetcher.
func (f *CachedFetcher) Configured() error {
	return f.next.Configured()
}

// ComputeRoutes implements Fetcher.
func (f *CachedFetcher) ComputeRoutes(ctx context.Context, req *Request) (*Response, error) {
	key, err := f.cacheKey(req)
	if err != nil {
		return nil, err
	}

	var cached Response
	hit, err := f.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.WarnContext(ctx, "route cache read failed", zap.String("key", f.cache.Key(key)), zap.Error(err))
	}
	if hit && len(cached.Routes) > 0 {
		routeCacheTotal.WithLabelValues("hit").Inc()
		tracing.AddSpanAttributes(ctx, tracing.CacheHitKey.Bool(true))
		cached.CacheHit = true
		return &cached, nil
	}
	routeCacheTotal.WithLabelValues("miss").Inc()
	tracing.AddSpanAttributes(ctx, tracing.CacheHitKey.Bool(false))

	resp, err := f.next.ComputeRoutes(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, resp, f.ttl); err != nil {
		logger.WarnContext(ctx, "route cache write failed", zap.String("key", f.cache.Key(key)), zap.Error(err))
	}
	return resp, nil
}

func (f *CachedFetcher) cacheKey(req *Request) (string, error) {
	body, err := BuildBody(req)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal route request: %w", err)
	}

	h := sha256.New()
	h.Write(raw)
	h.Write([]byte(FieldMask(f.fieldMask, body.OptimizeWaypointOrder)))
	return "routes:" + hex.EncodeToString(h.Sum(nil)), nil
}
