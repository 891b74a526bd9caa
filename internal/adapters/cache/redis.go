package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/ports"
)

// RedisScheduleCache is a ports.ScheduleCache backed by Redis, for
// deployments where several service instances must share one cache.
//
// The entry is stored as JSON with its creation timestamp embedded, so
// freshness stays a policy decision of this layer; the Redis key TTL only
// enforces the retention window.
type RedisScheduleCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewRedisScheduleCache(rdb *redis.Client, ttl, retention time.Duration) *RedisScheduleCache {
	return NewRedisScheduleCacheWithClock(rdb, ttl, retention, time.Now)
}

func NewRedisScheduleCacheWithClock(
	rdb *redis.Client,
	ttl, retention time.Duration,
	now func() time.Time,
) *RedisScheduleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retention < ttl {
		retention = DefaultRetention
	}

	return &RedisScheduleCache{
		rdb:       rdb,
		ttl:       ttl,
		retention: retention,
		now:       now,
	}
}

func scheduleKey(userID string) string {
	return "schedule:" + userID
}

func (c *RedisScheduleCache) Get(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(ctx, userID, c.ttl)
}

func (c *RedisScheduleCache) GetAny(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(ctx, userID, c.retention)
}

func (c *RedisScheduleCache) lookup(ctx context.Context, userID string, maxAge time.Duration) (*ports.CacheEntry, error) {
	if userID == "" {
		return nil, errors.New("redis schedule cache: userID must be non-empty")
	}

	raw, err := c.rdb.Get(ctx, scheduleKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis schedule cache: get %q: %w", userID, err)
	}

	var entry ports.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("redis schedule cache: decode entry for %q: %w", userID, err)
	}

	if entry.Age(c.now()) > maxAge {
		return nil, nil
	}

	return &entry, nil
}

func (c *RedisScheduleCache) Put(ctx context.Context, userID string, schedule *domain.OptimizedSchedule) error {
	if userID == "" {
		return errors.New("redis schedule cache: userID must be non-empty")
	}
	if schedule == nil {
		return errors.New("redis schedule cache: schedule must be non-nil")
	}

	entry := ports.CacheEntry{Schedule: schedule, CreatedAt: c.now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis schedule cache: encode entry for %q: %w", userID, err)
	}

	// SET is atomic in Redis, so replace-on-write needs no transaction.
	if err := c.rdb.Set(ctx, scheduleKey(userID), raw, c.retention).Err(); err != nil {
		return fmt.Errorf("redis schedule cache: put %q: %w", userID, err)
	}

	return nil
}

func (c *RedisScheduleCache) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("redis schedule cache: userID must be non-empty")
	}

	if err := c.rdb.Del(ctx, scheduleKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis schedule cache: clear %q: %w", userID, err)
	}
	return nil
}

func (c *RedisScheduleCache) IsFresh(ctx context.Context, userID string) (bool, error) {
	entry, err := c.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}
