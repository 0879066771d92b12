package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScriptRepository struct {
	pool *pgxpool.Pool
}

func NewScriptRepository(pool *pgxpool.Pool) *ScriptRepository {
	return &ScriptRepository{pool: pool}
}

const scriptColumns = `id, name, version, output_regex, labels, timeout_in_s, script_content`

func (r *ScriptRepository) Create(ctx context.Context, s *domain.Script) (*domain.Script, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO scripts (id, name, version, output_regex, labels, timeout_in_s, script_content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+scriptColumns,
		s.ID, s.Name, s.Version, s.OutputRegex, s.Labels, int(s.Timeout.Seconds()), s.ScriptContent,
	)
	return scanScript(row)
}

func (r *ScriptRepository) GetByID(ctx context.Context, id string) (*domain.Script, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scriptColumns+` FROM scripts WHERE id = $1`, id)
	return scanScript(row)
}

func (r *ScriptRepository) List(ctx context.Context, filter repository.ScriptFilter) ([]*domain.Script, error) {
	var args []any
	where := []string{"1=1"}
	if filter.Name != "" {
		args = append(args, filter.Name)
		where = append(where, fmt.Sprintf("name = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM scripts WHERE %s ORDER BY name`, scriptColumns, strings.Join(where, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Script
	for rows.Next() {
		s, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScriptRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM scripts`).Scan(&n)
	return n, err
}

var allowedScriptColumns = map[string]bool{
	"name": true, "version": true, "output_regex": true, "script_content": true,
}

func (r *ScriptRepository) UpdateField(ctx context.Context, id, column, value string) error {
	if !allowedScriptColumns[column] {
		return fmt.Errorf("update script field: column %q is not updatable", column)
	}
	query := fmt.Sprintf(`UPDATE scripts SET %s = $2 WHERE id = $1`, column)
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}

func (r *ScriptRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	return err
}

func scanScript(row rowScanner) (*domain.Script, error) {
	var s domain.Script
	var timeoutSecs int
	err := row.Scan(&s.ID, &s.Name, &s.Version, &s.OutputRegex, &s.Labels, &timeoutSecs, &s.ScriptContent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScriptNotFound
		}
		return nil, fmt.Errorf("scan script: %w", err)
	}
	s.Timeout = time.Duration(timeoutSecs) * time.Second
	return &s, nil
}
