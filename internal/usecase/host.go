package usecase

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type HostUsecase struct {
	hosts repository.HostRepository
}

func NewHostUsecase(hosts repository.HostRepository) *HostUsecase {
	return &HostUsecase{hosts: hosts}
}

func (u *HostUsecase) Create(ctx context.Context, alias string, attributes []string) (*domain.Host, error) {
	return u.hosts.Create(ctx, &domain.Host{Alias: alias, Attributes: attributes, Active: true})
}

func (u *HostUsecase) Get(ctx context.Context, id string) (*domain.Host, error) {
	return u.hosts.GetByID(ctx, id)
}

func (u *HostUsecase) List(ctx context.Context, filter repository.HostFilter) ([]*domain.Host, error) {
	return u.hosts.List(ctx, filter)
}

func (u *HostUsecase) SetActive(ctx context.Context, id string, active bool) error {
	value := "false"
	if active {
		value = "true"
	}
	return u.hosts.UpdateField(ctx, id, "active", value)
}

func (u *HostUsecase) Delete(ctx context.Context, id string) error {
	return u.hosts.Delete(ctx, id)
}
