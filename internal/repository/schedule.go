package repository

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
)

// ScheduleState filters ListByState by a schedule's active flag.
type ScheduleState int

const (
	ScheduleStateActive ScheduleState = iota
	ScheduleStateInactive
	ScheduleStateAll
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error)
	GetByID(ctx context.Context, id string) (*domain.Schedule, error)
	List(ctx context.Context) ([]*domain.Schedule, error)
	Count(ctx context.Context) (int, error)
	UpdateField(ctx context.Context, id, column, value string) error
	Delete(ctx context.Context, id string) error

	// ListByState returns schedules filtered by their active flag.
	// Host matching (by target id or attribute equality) is not a store
	// concern — callers filter the result in memory with
	// Schedule.MatchesHost, so the materializer and the per-host read
	// surface resolve targets the same way.
	ListByState(ctx context.Context, state ScheduleState) ([]*domain.Schedule, error)

	// Deactivate flips active to false; used once a Timestamp schedule
	// has materialized its single execution.
	Deactivate(ctx context.Context, id string) error
}
