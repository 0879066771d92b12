package repository

import (
	"context"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
)

type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Execution, error)
	List(ctx context.Context) ([]*domain.Execution, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error

	// FutureForSchedule returns executions for (hostID, schedID) whose
	// request is strictly after now — used by the materializer to decide
	// whether a sooner-or-equal row already exists.
	FutureForSchedule(ctx context.Context, hostID, schedID string, after time.Time) ([]*domain.Execution, error)

	// Insert creates a new PENDING execution row.
	Insert(ctx context.Context, e *domain.Execution) (*domain.Execution, error)

	// ClaimDue atomically transitions every PENDING-and-due execution for
	// hostID (request < now, response IS NULL) to CLAIMED by writing the
	// sentinel epoch into response, and returns the claimed rows. This is
	// the single serialization point for the dispatcher's claim step.
	ClaimDue(ctx context.Context, hostID string, now time.Time) ([]*domain.Execution, error)

	// Complete finalizes an execution: response = completedAt, output = out.
	// It only applies to a row currently in the CLAIMED state (response =
	// domain.SentinelEpoch) — a reply naming a still-PENDING or unknown
	// execution id is rejected with domain.ErrExecutionNotClaimed rather
	// than silently finalized, since that would let an agent complete work
	// the server never claimed or dispatched.
	Complete(ctx context.Context, id string, completedAt time.Time, output string) error
}
