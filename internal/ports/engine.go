package ports

import (
	"context"
	"errors"

	"schedule-orchestrator/internal/domain"
)

// Closed failure taxonomy for the optimization engine. Callers classify
// with errors.Is; no control flow ever inspects error strings.
var (
	// ErrNoCustomers means the engine found no customers for the user.
	ErrNoCustomers = errors.New("no customers found for user")

	// ErrEngineFault means the engine reported an internal failure.
	ErrEngineFault = errors.New("optimization engine internal error")

	// ErrUnreachable means the engine could not be reached at all,
	// including a client-side timeout.
	ErrUnreachable = errors.New("optimization engine unreachable")

	// ErrMalformed means the engine responded with a payload that does
	// not satisfy the wire contract.
	ErrMalformed = errors.New("malformed optimization engine response")
)

// Port: contract-enforcing boundary to the external optimization engine.
type OptimizationEngine interface {
	// Optimize requests a full-horizon schedule for one user. Failures are
	// classified into the sentinel errors above; no retries happen here.
	Optimize(
		ctx context.Context,
		userID string,
		ws domain.WorkSchedule,
		start domain.StartLocation,
	) (*domain.OptimizedSchedule, error)
}
