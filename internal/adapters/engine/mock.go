package engine

import (
	"context"
	"errors"
	"sync"

	"schedule-orchestrator/internal/domain"
)

type mockOutcome struct {
	schedule *domain.OptimizedSchedule
	err      error
}

// MockEngine is a scripted test double for ports.OptimizationEngine.
// Outcomes are consumed in FIFO order; the call count supports
// idempotence and single-flight assertions. Safe for concurrent use.
type MockEngine struct {
	mu    sync.Mutex
	queue []mockOutcome
	calls int

	// Gate, when non-nil, blocks every Optimize call until the channel
	// is closed. Lets tests hold several callers in flight at once.
	Gate chan struct{}
}

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Enqueue scripts the next outcome: a schedule or an error.
func (m *MockEngine) Enqueue(schedule *domain.OptimizedSchedule, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockOutcome{schedule: schedule, err: err})
}

// Calls reports how many times Optimize has been invoked.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEngine) Optimize(
	ctx context.Context,
	userID string,
	ws domain.WorkSchedule,
	start domain.StartLocation,
) (*domain.OptimizedSchedule, error) {
	m.mu.Lock()
	m.calls++
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return nil, errors.New("mock engine: no scripted outcome left")
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if next.err != nil {
		return nil, next.err
	}

	out := next.schedule.Clone()
	out.WorkSchedule = ws.Clone()
	return out, nil
}
