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

type HostRepository struct {
	pool *pgxpool.Pool
}

func NewHostRepository(pool *pgxpool.Pool) *HostRepository {
	return &HostRepository{pool: pool}
}

const hostColumns = `id, alias, attributes, ip, active, last_checkin, created`

func (r *HostRepository) Create(ctx context.Context, h *domain.Host) (*domain.Host, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO hosts (id, alias, attributes, ip, active, created)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+hostColumns,
		h.ID, h.Alias, h.Attributes, h.IP, h.Active,
	)
	return scanHost(row)
}

func (r *HostRepository) GetByID(ctx context.Context, id string) (*domain.Host, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+hostColumns+` FROM hosts WHERE id = $1`, id)
	return scanHost(row)
}

func (r *HostRepository) List(ctx context.Context, filter repository.HostFilter) ([]*domain.Host, error) {
	var args []any
	where := []string{"1=1"}

	if filter.Alias != "" {
		args = append(args, filter.Alias)
		where = append(where, fmt.Sprintf("alias = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM hosts WHERE %s ORDER BY created DESC`, hostColumns, strings.Join(where, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []*domain.Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

func (r *HostRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM hosts`).Scan(&n)
	return n, err
}

func (r *HostRepository) Checkin(ctx context.Context, id, alias string, attributes []string, ip string) (*domain.Host, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE hosts
		SET    alias = $2, attributes = $3, ip = $4, last_checkin = now()
		WHERE  id = $1
		RETURNING `+hostColumns,
		id, alias, attributes, ip,
	)
	return scanHost(row)
}

func (r *HostRepository) TouchLastCheckin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE hosts SET last_checkin = now() WHERE id = $1`, id)
	return err
}

// allowedHostColumns guards UpdateField against arbitrary column injection;
// the value itself is always bound as a parameter.
var allowedHostColumns = map[string]bool{
	"alias": true, "ip": true, "active": true,
}

func (r *HostRepository) UpdateField(ctx context.Context, id, column, value string) error {
	if !allowedHostColumns[column] {
		return fmt.Errorf("update host field: column %q is not updatable", column)
	}
	query := fmt.Sprintf(`UPDATE hosts SET %s = $2 WHERE id = $1`, column)
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}

func (r *HostRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM hosts WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(row rowScanner) (*domain.Host, error) {
	var h domain.Host
	var lastCheckin *time.Time
	err := row.Scan(&h.ID, &h.Alias, &h.Attributes, &h.IP, &h.Active, &lastCheckin, &h.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHostNotFound
		}
		return nil, fmt.Errorf("scan host: %w", err)
	}
	h.LastCheckin = lastCheckin
	return &h, nil
}
