package usecase

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type UserUsecase struct {
	users     repository.UserRepository
	blacklist repository.BlacklistRepository
}

func NewUserUsecase(users repository.UserRepository, blacklist repository.BlacklistRepository) *UserUsecase {
	return &UserUsecase{users: users, blacklist: blacklist}
}

func (u *UserUsecase) Create(ctx context.Context, email, password string, roles []string) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return u.users.Create(ctx, &domain.User{Email: email, Password: hash, Roles: roles, Active: true})
}

func (u *UserUsecase) List(ctx context.Context) ([]*domain.User, error) {
	return u.users.List(ctx)
}

func (u *UserUsecase) Delete(ctx context.Context, id string) error {
	return u.users.Delete(ctx, id)
}

// Unblock clears the blacklist entry for ip, behind
// POST /api/v1/unblock/:id.
func (u *UserUsecase) Unblock(ctx context.Context, ip string) error {
	return u.blacklist.Delete(ctx, ip)
}
