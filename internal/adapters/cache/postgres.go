package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/platform/obs"
	"schedule-orchestrator/internal/ports"
)

// PostgresScheduleCache is a ports.ScheduleCache persisted in Postgres,
// for deployments that want cached schedules to survive restarts.
// The schedule payload is stored as JSONB alongside its creation time.
type PostgresScheduleCache struct {
	DB        *sql.DB
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewPostgresScheduleCache(db *sql.DB, ttl, retention time.Duration) *PostgresScheduleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retention < ttl {
		retention = DefaultRetention
	}

	return &PostgresScheduleCache{
		DB:        db,
		ttl:       ttl,
		retention: retention,
		now:       time.Now,
	}
}

// InitPostgresSchema creates the cache table if it does not exist.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS schedule_cache (
		user_id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("init schema: create schedule_cache table: %w", err)
	}

	return nil
}

func (c *PostgresScheduleCache) Get(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(ctx, userID, c.ttl)
}

func (c *PostgresScheduleCache) GetAny(ctx context.Context, userID string) (*ports.CacheEntry, error) {
	return c.lookup(ctx, userID, c.retention)
}

func (c *PostgresScheduleCache) lookup(
	ctx context.Context,
	userID string,
	maxAge time.Duration,
) (_ *ports.CacheEntry, err error) {
	defer obs.Time(ctx, "schedule.cache.lookup")(&err)

	if c.DB == nil {
		return nil, errors.New("postgres schedule cache: db is nil")
	}
	if userID == "" {
		return nil, errors.New("postgres schedule cache: userID must be non-empty")
	}

	q := `
	SELECT payload, created_at
	FROM schedule_cache
	WHERE user_id = $1;
	`

	var payload []byte
	var createdAt time.Time
	row := c.DB.QueryRowContext(ctx, q, userID)
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres schedule cache: query %q: %w", userID, err)
	}

	entry := ports.CacheEntry{CreatedAt: createdAt}
	if entry.Age(c.now()) > maxAge {
		return nil, nil
	}

	var schedule domain.OptimizedSchedule
	if err := json.Unmarshal(payload, &schedule); err != nil {
		return nil, fmt.Errorf("postgres schedule cache: decode payload for %q: %w", userID, err)
	}
	entry.Schedule = &schedule

	return &entry, nil
}

func (c *PostgresScheduleCache) Put(ctx context.Context, userID string, schedule *domain.OptimizedSchedule) error {
	if c.DB == nil {
		return errors.New("postgres schedule cache: db is nil")
	}
	if userID == "" {
		return errors.New("postgres schedule cache: userID must be non-empty")
	}
	if schedule == nil {
		return errors.New("postgres schedule cache: schedule must be non-nil")
	}

	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("postgres schedule cache: encode payload for %q: %w", userID, err)
	}

	q := `
	INSERT INTO schedule_cache (user_id, payload, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE
	SET payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at;
	`

	if _, err := c.DB.ExecContext(ctx, q, userID, payload, c.now()); err != nil {
		return fmt.Errorf("postgres schedule cache: upsert %q: %w", userID, err)
	}

	return nil
}

func (c *PostgresScheduleCache) Clear(ctx context.Context, userID string) error {
	if c.DB == nil {
		return errors.New("postgres schedule cache: db is nil")
	}
	if userID == "" {
		return errors.New("postgres schedule cache: userID must be non-empty")
	}

	q := `DELETE FROM schedule_cache WHERE user_id = $1;`
	if _, err := c.DB.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("postgres schedule cache: clear %q: %w", userID, err)
	}

	return nil
}

func (c *PostgresScheduleCache) IsFresh(ctx context.Context, userID string) (bool, error) {
	if c.DB == nil {
		return false, errors.New("postgres schedule cache: db is nil")
	}
	if userID == "" {
		return false, errors.New("postgres schedule cache: userID must be non-empty")
	}

	q := `SELECT created_at FROM schedule_cache WHERE user_id = $1;`

	var createdAt time.Time
	if err := c.DB.QueryRowContext(ctx, q, userID).Scan(&createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("postgres schedule cache: freshness %q: %w", userID, err)
	}

	entry := ports.CacheEntry{CreatedAt: createdAt}
	return entry.Age(c.now()) <= c.ttl, nil
}

// PruneExpired deletes entries past the retention window. Run from the
// cache tool, not the request path.
func (c *PostgresScheduleCache) PruneExpired(ctx context.Context) (int64, error) {
	if c.DB == nil {
		return 0, errors.New("postgres schedule cache: db is nil")
	}

	cutoff := c.now().Add(-c.retention)
	res, err := c.DB.ExecContext(ctx, `DELETE FROM schedule_cache WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres schedule cache: prune: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres schedule cache: prune rows affected: %w", err)
	}
	return n, nil
}
