package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExecutionRepository struct {
	pool *pgxpool.Pool
}

func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

const executionColumns = `id, request, response, host_id, sched_id, created, output`

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*domain.Execution, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+executionColumns+` FROM executions WHERE id = $1`, id)
	return scanExecution(row)
}

func (r *ExecutionRepository) List(ctx context.Context) ([]*domain.Execution, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+executionColumns+` FROM executions ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func (r *ExecutionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM executions`).Scan(&n)
	return n, err
}

func (r *ExecutionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM executions WHERE id = $1`, id)
	return err
}

func (r *ExecutionRepository) FutureForSchedule(ctx context.Context, hostID, schedID string, after time.Time) ([]*domain.Execution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+executionColumns+`
		FROM executions
		WHERE host_id = $1 AND sched_id = $2 AND request > $3`,
		hostID, schedID, after,
	)
	if err != nil {
		return nil, fmt.Errorf("future executions for schedule: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func (r *ExecutionRepository) Insert(ctx context.Context, e *domain.Execution) (*domain.Execution, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO executions (id, request, response, host_id, sched_id, created, output)
		VALUES ($1, $2, NULL, $3, $4, now(), '')
		RETURNING `+executionColumns,
		e.ID, e.Request, e.HostID, e.SchedID,
	)
	return scanExecution(row)
}

// ClaimDue is the dispatcher's serialization point: it writes
// the sentinel epoch into response for every PENDING-and-due row in one
// statement, guarded by FOR UPDATE SKIP LOCKED so a concurrent dispatcher
// pass for the same host can never double-claim a row.
func (r *ExecutionRepository) ClaimDue(ctx context.Context, hostID string, now time.Time) ([]*domain.Execution, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE executions
		SET    response = $3
		WHERE id IN (
			SELECT id FROM executions
			WHERE  host_id = $1 AND request < $2 AND response IS NULL
			ORDER BY request ASC
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+executionColumns,
		hostID, now, domain.SentinelEpoch,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due executions: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

// Complete only finalizes a row currently in the CLAIMED state (response
// still equal to the sentinel epoch); see the ExecutionRepository doc.
func (r *ExecutionRepository) Complete(ctx context.Context, id string, completedAt time.Time, output string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE executions SET response = $2, output = $3
		WHERE id = $1 AND response = $4`,
		id, completedAt, output, domain.SentinelEpoch,
	)
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExecutionNotClaimed
	}
	return nil
}

func scanExecutions(rows pgx.Rows) ([]*domain.Execution, error) {
	var out []*domain.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExecution(row rowScanner) (*domain.Execution, error) {
	var e domain.Execution
	err := row.Scan(&e.ID, &e.Request, &e.Response, &e.HostID, &e.SchedID, &e.Created, &e.Output)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	return &e, nil
}
