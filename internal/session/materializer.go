package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/apimeister/unpatched-server/internal/cronexpr"
	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
)

// Materializer turns active schedules matching the bound host into at
// most one future Execution row each per tick. It runs as one instance
// per session rather than a singleton daemon.
type Materializer struct {
	host       *hostCell
	schedules  repository.ScheduleRepository
	executions repository.ExecutionRepository
	logger     *slog.Logger
	interval   time.Duration
	sevenField bool
	now        func() time.Time
}

func NewMaterializer(
	host *hostCell,
	schedules repository.ScheduleRepository,
	executions repository.ExecutionRepository,
	logger *slog.Logger,
	interval time.Duration,
	sevenField bool,
) *Materializer {
	return &Materializer{
		host:       host,
		schedules:  schedules,
		executions: executions,
		logger:     logger.With("component", "materializer"),
		interval:   interval,
		sevenField: sevenField,
		now:        time.Now,
	}
}

// Run ticks until ctx is done.
func (m *Materializer) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Materializer) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.MaterializerCycleDuration.Observe(time.Since(start).Seconds()) }()

	host := m.host.Get()
	if host == nil {
		return
	}

	schedules, err := m.schedules.ListByState(ctx, repository.ScheduleStateActive)
	if err != nil {
		m.logger.Warn("list active schedules", "error", err)
		return
	}

	now := m.now().UTC()
	for _, s := range schedules {
		if !s.MatchesHost(host) {
			continue
		}
		if err := m.materialize(ctx, host, s, now); err != nil {
			m.logger.Warn("materialize schedule", "schedule_id", s.ID, "error", err)
		}
	}
}

func (m *Materializer) materialize(ctx context.Context, host *domain.Host, s *domain.Schedule, now time.Time) error {
	trigger, deactivate, err := m.nextTrigger(s, now)
	if err != nil {
		return err
	}
	if trigger.IsZero() {
		return nil
	}

	if deactivate {
		if err := m.schedules.Deactivate(ctx, s.ID); err != nil {
			return err
		}
	}

	futures, err := m.executions.FutureForSchedule(ctx, host.ID, s.ID, now)
	if err != nil {
		return err
	}
	for _, e := range futures {
		if !e.Request.After(trigger) {
			// A sooner-or-equal execution already exists: skip.
			return nil
		}
	}

	_, err = m.executions.Insert(ctx, &domain.Execution{
		ID:      uuid.NewString(),
		Request: trigger,
		HostID:  host.ID,
		SchedID: s.ID,
		Created: now,
	})
	if err == nil {
		metrics.ExecutionsMaterializedTotal.Inc()
	}
	return err
}

// nextTrigger computes the single next trigger time for s, and whether
// materializing it should deactivate the schedule.
func (m *Materializer) nextTrigger(s *domain.Schedule, now time.Time) (time.Time, bool, error) {
	switch s.Timer.Kind {
	case domain.TimerTimestamp:
		return s.Timer.Timestamp.UTC(), true, nil
	case domain.TimerCron:
		parsed, err := cronexpr.Parse(s.Timer.Cron, m.sevenField)
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed.Next(now), false, nil
	default:
		return time.Time{}, false, domain.ErrInvalidTimer
	}
}
