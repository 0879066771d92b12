package usecase

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type ScheduleUsecase struct {
	schedules repository.ScheduleRepository
	hosts     repository.HostRepository
}

func NewScheduleUsecase(schedules repository.ScheduleRepository, hosts repository.HostRepository) *ScheduleUsecase {
	return &ScheduleUsecase{schedules: schedules, hosts: hosts}
}

func (u *ScheduleUsecase) Create(ctx context.Context, scriptID string, target domain.Target, timer domain.Timer) (*domain.Schedule, error) {
	return u.schedules.Create(ctx, &domain.Schedule{
		ScriptID: scriptID,
		Target:   target,
		Timer:    timer,
		Active:   true,
	})
}

func (u *ScheduleUsecase) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	return u.schedules.GetByID(ctx, id)
}

func (u *ScheduleUsecase) List(ctx context.Context) ([]*domain.Schedule, error) {
	return u.schedules.List(ctx)
}

// ListForHost returns every schedule that fires against hostID, filtered
// by active state: targeted by the host's id directly, or by an attribute
// set matching the host's. The matching is the same Schedule.MatchesHost
// the materializer applies, so this read surface and the session loops
// never disagree about which schedules a host has.
func (u *ScheduleUsecase) ListForHost(ctx context.Context, hostID string, state repository.ScheduleState) ([]*domain.Schedule, error) {
	host, err := u.hosts.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	schedules, err := u.schedules.ListByState(ctx, state)
	if err != nil {
		return nil, err
	}

	var matched []*domain.Schedule
	for _, s := range schedules {
		if s.MatchesHost(host) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (u *ScheduleUsecase) SetActive(ctx context.Context, id string, active bool) error {
	value := "false"
	if active {
		value = "true"
	}
	return u.schedules.UpdateField(ctx, id, "active", value)
}

func (u *ScheduleUsecase) Delete(ctx context.Context, id string) error {
	return u.schedules.Delete(ctx, id)
}
