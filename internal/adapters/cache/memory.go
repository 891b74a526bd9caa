package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/ports"
)

// Defaults for the freshness and retention windows. Expired entries are
// retained (but never served as fresh) so a returning user is still
// recognized after the TTL lapses.
const (
	DefaultTTL       = 5 * time.Minute
	DefaultRetention = 24 * time.Hour
)

// MemoryScheduleCache is an in-process ports.ScheduleCache.
//
// Entries are deep-copied on write and on read, so callers can never
// mutate the stored value or observe a write in progress. The clock is
// injected so TTL behavior is testable without sleeping.
type MemoryScheduleCache struct {
	mu        sync.RWMutex
	entries   map[string]ports.CacheEntry
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewMemoryScheduleCache(ttl, retention time.Duration) *MemoryScheduleCache {
	return NewMemoryScheduleCacheWithClock(ttl, retention, time.Now)
}

func NewMemoryScheduleCacheWithClock(ttl, retention time.Duration, now func() time.Time) *MemoryScheduleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retention < ttl {
		retention = DefaultRetention
	}

	return &MemoryScheduleCache{
		entries:   make(map[string]ports.CacheEntry),
		ttl:       ttl,
		retention: retention,
		now:       now,
	}
}

func (c *MemoryScheduleCache) Get(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(userID, c.ttl)
}

func (c *MemoryScheduleCache) GetAny(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(userID, c.retention)
}

func (c *MemoryScheduleCache) lookup(userID string, maxAge time.Duration) (*ports.CacheEntry, error) {
	if userID == "" {
		return nil, errors.New("schedule cache: userID must be non-empty")
	}

	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || entry.Age(c.now()) > maxAge {
		return nil, nil
	}

	return &ports.CacheEntry{
		Schedule:  entry.Schedule.Clone(),
		CreatedAt: entry.CreatedAt,
	}, nil
}

func (c *MemoryScheduleCache) Put(ctx context.Context, userID string, schedule *domain.OptimizedSchedule) error {
	if userID == "" {
		return errors.New("schedule cache: userID must be non-empty")
	}
	if schedule == nil {
		return errors.New("schedule cache: schedule must be non-nil")
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic sweep of entries past retention; keeps the map
	// bounded by the active user population.
	for id, entry := range c.entries {
		if entry.Age(now) > c.retention {
			delete(c.entries, id)
		}
	}

	c.entries[userID] = ports.CacheEntry{
		Schedule:  schedule.Clone(),
		CreatedAt: now,
	}

	return nil
}

func (c *MemoryScheduleCache) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("schedule cache: userID must be non-empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

func (c *MemoryScheduleCache) IsFresh(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, errors.New("schedule cache: userID must be non-empty")
	}

	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	return ok && entry.Age(c.now()) <= c.ttl, nil
}
