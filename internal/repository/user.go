package repository

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int, error)
	UpdateField(ctx context.Context, id, column, value string) error
	Delete(ctx context.Context, id string) error
}
