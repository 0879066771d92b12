package repository

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
)

type ScriptFilter struct {
	Name string
}

type ScriptRepository interface {
	Create(ctx context.Context, s *domain.Script) (*domain.Script, error)
	GetByID(ctx context.Context, id string) (*domain.Script, error)
	List(ctx context.Context, filter ScriptFilter) ([]*domain.Script, error)
	Count(ctx context.Context) (int, error)
	UpdateField(ctx context.Context, id, column, value string) error

	// Delete cascades to schedules referencing this script; it returns
	// nil when id does not exist.
	Delete(ctx context.Context, id string) error
}
