package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/platform/obs"
	"schedule-orchestrator/internal/ports"
)

// ErrInvalidWorkSchedule rejects a request before any engine call is made.
var ErrInvalidWorkSchedule = errors.New("invalid work schedule")

// DefaultRetryBackoff is the pause before the single retry that follows
// an unreachable engine.
const DefaultRetryBackoff = 500 * time.Millisecond

// Result is the orchestrator's normalized outcome.
//
// IsFirstTime is true iff no prior entry existed for the user immediately
// before the call. ProtectedDates lists the calendar dates actually
// honored: the prior schedule's plan for those dates survived unchanged.
type Result struct {
	Schedule       *domain.OptimizedSchedule
	IsFirstTime    bool
	ProtectedDates []string
}

// Orchestrator is the smart-optimization use case: it detects first-time
// vs returning users, invokes the engine, splices protected days over the
// proposal, and keeps the cache consistent.
//
// Concurrent calls for the same user collapse into a single engine
// invocation via singleflight; cache writes are last-writer-wins across
// distinct flights, which never corrupts an entry.
type Orchestrator struct {
	cache        ports.ScheduleCache
	engine       ports.OptimizationEngine
	location     *time.Location
	now          func() time.Time
	retryBackoff time.Duration
	group        singleflight.Group
}

func NewOrchestrator(cache ports.ScheduleCache, eng ports.OptimizationEngine, loc *time.Location) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}

	return &Orchestrator{
		cache:        cache,
		engine:       eng,
		location:     loc,
		now:          time.Now,
		retryBackoff: DefaultRetryBackoff,
	}
}

// WithClock overrides the time source. Test hook.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// WithRetryBackoff overrides the pause before the unreachable-retry.
func (o *Orchestrator) WithRetryBackoff(d time.Duration) *Orchestrator {
	o.retryBackoff = d
	return o
}

// GetSchedule is the read-through entry point: a fresh cached schedule is
// served without touching the engine; otherwise it falls through to a
// full SmartOptimize. Two calls within the TTL therefore produce
// identical results from exactly one engine invocation.
func (o *Orchestrator) GetSchedule(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (_ *Result, err error) {
	defer obs.Time(ctx, "orchestrator.GetSchedule")(&err)

	if userID == "" {
		return nil, errors.New("get schedule: userID must be non-empty")
	}

	entry, err := o.cache.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: read cache: %w", err)
	}
	if entry != nil {
		return &Result{Schedule: entry.Schedule, IsFirstTime: false}, nil
	}

	return o.SmartOptimize(ctx, userID, ws, start)
}

// SmartOptimize always consults the engine, protecting the near-term days
// of a returning user's prior schedule. On any failure the cache is left
// exactly as it was.
func (o *Orchestrator) SmartOptimize(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (_ *Result, err error) {
	defer obs.Time(ctx, "orchestrator.SmartOptimize")(&err)

	if userID == "" {
		return nil, errors.New("smart optimize: userID must be non-empty")
	}
	if err := ws.Validate(); err != nil {
		return nil, fmt.Errorf("smart optimize: %w: %v", ErrInvalidWorkSchedule, err)
	}

	// Duplicate taps and background triggers for one user share a single
	// in-flight optimization.
	v, err, _ := o.group.Do(userID, func() (any, error) {
		return o.optimize(ctx, userID, ws, start)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Result), nil
}

func (o *Orchestrator) optimize(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (*Result, error) {
	prior := NoPrior()
	entry, err := o.cache.GetAny(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("smart optimize: read prior schedule: %w", err)
	}
	if entry != nil {
		prior = WithPrior(entry.Schedule)
	}

	protected := ProtectedDates(o.now(), o.location, prior)

	proposed, err := o.callEngine(ctx, userID, ws, start)
	if err != nil {
		// Cache stays untouched on every failure path, including
		// NoCustomers: an existing entry may still serve direct reads.
		return nil, fmt.Errorf("smart optimize: %w", err)
	}

	merged := spliceProtectedDays(proposed, prior, protected)

	if err := o.cache.Put(ctx, userID, merged); err != nil {
		return nil, fmt.Errorf("smart optimize: write cache: %w", err)
	}

	return &Result{
		Schedule:       merged,
		IsFirstTime:    !prior.Exists(),
		ProtectedDates: protected,
	}, nil
}

// callEngine invokes the engine with the orchestrator's retry policy:
// one retry after a short backoff when the engine was unreachable, and
// never on an engine-reported fault (no load amplification on a
// struggling dependency).
func (o *Orchestrator) callEngine(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (*domain.OptimizedSchedule, error) {
	proposed, err := o.engine.Optimize(ctx, userID, ws, start)
	if err == nil || !errors.Is(err, ports.ErrUnreachable) {
		return proposed, err
	}

	timer := time.NewTimer(o.retryBackoff)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	return o.engine.Optimize(ctx, userID, ws, start)
}

// spliceProtectedDays enforces protection client-side: each protected
// date in the result mirrors the prior schedule exactly, including the
// absence of a plan for that date. Summaries are then recomputed over the
// merged week.
func spliceProtectedDays(
	proposed *domain.OptimizedSchedule,
	prior Prior,
	protected []string,
) *domain.OptimizedSchedule {
	if !prior.Exists() || len(protected) == 0 {
		return proposed
	}

	merged := proposed.Clone()
	for _, date := range protected {
		if day, ok := prior.Schedule().DayFor(date); ok {
			merged.Days[date] = day.Clone()
		} else {
			delete(merged.Days, date)
		}
	}
	merged.RecomputeSummaries()

	return merged
}

// ClearCache discards the user's cached schedule (hard refresh).
func (o *Orchestrator) ClearCache(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("clear cache: userID must be non-empty")
	}

	if err := o.cache.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
