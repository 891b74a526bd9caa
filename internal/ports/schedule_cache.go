package ports

import (
	"context"
	"time"

	"schedule-orchestrator/internal/domain"
)

// A stored optimization result and the instant it was produced.
// Freshness is always derived from CreatedAt, never stored.
type CacheEntry struct {
	Schedule  *domain.OptimizedSchedule `json:"schedule"`
	CreatedAt time.Time                 `json:"created_at"`
}

// Age reports how old the entry is relative to now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Port: time-bounded store of the last optimized schedule per user.
//
// Implementations must make Put atomic per key and hand out copies on
// read, so a concurrent caller never observes a half-updated entry.
// A nil entry with a nil error means "absent".
type ScheduleCache interface {
	// Get returns the entry only while it is within TTL.
	Get(ctx context.Context, userID string) (*CacheEntry, error)

	// GetAny returns the entry even after TTL expiry, as long as it is
	// still within the retention window. Used to recognize returning
	// users and for read-through after an engine failure.
	GetAny(ctx context.Context, userID string) (*CacheEntry, error)

	// Put replaces any existing entry for the user.
	Put(ctx context.Context, userID string, schedule *domain.OptimizedSchedule) error

	// Clear removes the entry (manual hard refresh).
	Clear(ctx context.Context, userID string) error

	// IsFresh reports staleness without fetching the payload.
	IsFresh(ctx context.Context, userID string) (bool, error)
}
