package usecase

import (
	"context"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type ScriptUsecase struct {
	scripts repository.ScriptRepository
}

func NewScriptUsecase(scripts repository.ScriptRepository) *ScriptUsecase {
	return &ScriptUsecase{scripts: scripts}
}

type CreateScriptInput struct {
	Name          string
	Version       string
	OutputRegex   string
	Labels        []string
	Timeout       time.Duration
	ScriptContent string
}

func (u *ScriptUsecase) Create(ctx context.Context, in CreateScriptInput) (*domain.Script, error) {
	return u.scripts.Create(ctx, &domain.Script{
		Name:          in.Name,
		Version:       in.Version,
		OutputRegex:   in.OutputRegex,
		Labels:        in.Labels,
		Timeout:       in.Timeout,
		ScriptContent: in.ScriptContent,
	})
}

func (u *ScriptUsecase) Get(ctx context.Context, id string) (*domain.Script, error) {
	return u.scripts.GetByID(ctx, id)
}

func (u *ScriptUsecase) List(ctx context.Context, filter repository.ScriptFilter) ([]*domain.Script, error) {
	return u.scripts.List(ctx, filter)
}

func (u *ScriptUsecase) Delete(ctx context.Context, id string) error {
	return u.scripts.Delete(ctx, id)
}
