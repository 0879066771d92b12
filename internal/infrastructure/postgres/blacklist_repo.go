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

type BlacklistRepository struct {
	pool *pgxpool.Pool
}

func NewBlacklistRepository(pool *pgxpool.Pool) *BlacklistRepository {
	return &BlacklistRepository{pool: pool}
}

const blacklistColumns = `id, ip, tries, created, blocked, blocked_until`

func (r *BlacklistRepository) GetByIP(ctx context.Context, ip string) (*domain.BlacklistItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+blacklistColumns+` FROM blacklist WHERE ip = $1`, ip)
	item, err := scanBlacklistItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *BlacklistRepository) Delete(ctx context.Context, ip string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blacklist WHERE ip = $1`, ip)
	return err
}

// RecordFailure upserts the IP's row, incrementing tries by one in a
// single statement so concurrent login attempts from the same IP all
// count. Once tries reaches domain.MaxLoginTries on a row not yet
// blocked, a second UPDATE statement sets blocked and blocked_until.
func (r *BlacklistRepository) RecordFailure(ctx context.Context, ip string, now time.Time) (*domain.BlacklistItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blacklist (id, ip, tries, created)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (ip) DO UPDATE
			SET tries = blacklist.tries + 1
		RETURNING `+blacklistColumns,
		uuid.NewString(), ip, now,
	)
	item, err := scanBlacklistItem(row)
	if err != nil {
		return nil, err
	}

	if item.Tries >= domain.MaxLoginTries && item.Blocked == nil {
		blockedUntil := now.Add(domain.BlockWindow)
		row = r.pool.QueryRow(ctx, `
			UPDATE blacklist SET blocked = $2, blocked_until = $3 WHERE ip = $1
			RETURNING `+blacklistColumns,
			ip, now, blockedUntil,
		)
		item, err = scanBlacklistItem(row)
		if err != nil {
			return nil, err
		}
	}
	return item, nil
}

func scanBlacklistItem(row rowScanner) (*domain.BlacklistItem, error) {
	var b domain.BlacklistItem
	err := row.Scan(&b.ID, &b.IP, &b.Tries, &b.Created, &b.Blocked, &b.BlockedUntil)
	if err != nil {
		return nil, fmt.Errorf("scan blacklist item: %w", err)
	}
	return &b, nil
}
