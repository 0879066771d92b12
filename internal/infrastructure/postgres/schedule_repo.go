package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const scheduleColumns = `id, script_id, target_attributes, target_host_id, timer_cron, timer_ts, active`

func (r *ScheduleRepository) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	var targetAttrs any
	var targetHostID any
	switch s.Target.Kind {
	case domain.TargetAttributes:
		targetAttrs = s.Target.Attributes
	case domain.TargetHostID:
		targetHostID = s.Target.HostID
	default:
		return nil, domain.ErrInvalidTarget
	}

	var timerCron any
	var timerTS any
	switch s.Timer.Kind {
	case domain.TimerCron:
		timerCron = s.Timer.Cron
	case domain.TimerTimestamp:
		timerTS = s.Timer.Timestamp
	default:
		return nil, domain.ErrInvalidTimer
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (id, script_id, target_attributes, target_host_id, timer_cron, timer_ts, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+scheduleColumns,
		s.ID, s.ScriptID, targetAttrs, targetHostID, timerCron, timerTS, s.Active,
	)
	return scanSchedule(row)
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *ScheduleRepository) List(ctx context.Context) ([]*domain.Schedule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (r *ScheduleRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM schedules`).Scan(&n)
	return n, err
}

var allowedScheduleColumns = map[string]bool{
	"timer_cron": true, "active": true,
}

func (r *ScheduleRepository) UpdateField(ctx context.Context, id, column, value string) error {
	if !allowedScheduleColumns[column] {
		return fmt.Errorf("update schedule field: column %q is not updatable", column)
	}
	query := fmt.Sprintf(`UPDATE schedules SET %s = $2 WHERE id = $1`, column)
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	return err
}

func (r *ScheduleRepository) ListByState(ctx context.Context, state repository.ScheduleState) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	switch state {
	case repository.ScheduleStateActive:
		query += ` WHERE active = true`
	case repository.ScheduleStateInactive:
		query += ` WHERE active = false`
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules by state: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (r *ScheduleRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE schedules SET active = false WHERE id = $1`, id)
	return err
}

func scanSchedules(rows pgx.Rows) ([]*domain.Schedule, error) {
	var out []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	var targetAttrs []string
	var targetHostID *string
	var timerCron *string
	var timerTS *time.Time

	err := row.Scan(&s.ID, &s.ScriptID, &targetAttrs, &targetHostID, &timerCron, &timerTS, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	switch {
	case targetHostID != nil:
		s.Target = domain.NewHostIDTarget(*targetHostID)
	case targetAttrs != nil:
		s.Target = domain.NewAttributesTarget(targetAttrs)
	default:
		return nil, domain.ErrInvalidTarget
	}

	switch {
	case timerCron != nil:
		s.Timer = domain.NewCronTimer(*timerCron)
	case timerTS != nil:
		s.Timer = domain.NewTimestampTimer(*timerTS)
	default:
		return nil, domain.ErrInvalidTimer
	}

	return &s, nil
}
