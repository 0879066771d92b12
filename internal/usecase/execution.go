package usecase

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type ExecutionUsecase struct {
	executions repository.ExecutionRepository
}

func NewExecutionUsecase(executions repository.ExecutionRepository) *ExecutionUsecase {
	return &ExecutionUsecase{executions: executions}
}

func (u *ExecutionUsecase) Get(ctx context.Context, id string) (*domain.Execution, error) {
	return u.executions.GetByID(ctx, id)
}

func (u *ExecutionUsecase) List(ctx context.Context) ([]*domain.Execution, error) {
	return u.executions.List(ctx)
}

func (u *ExecutionUsecase) Delete(ctx context.Context, id string) error {
	return u.executions.Delete(ctx, id)
}
