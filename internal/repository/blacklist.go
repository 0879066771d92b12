package repository

import (
	"context"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
)

type BlacklistRepository interface {
	// GetByIP returns the blacklist row for ip, or domain.ErrHostNotFound-style
	// "not found" semantics via a nil, nil return — callers treat a missing
	// row as "fresh IP, zero tries".
	GetByIP(ctx context.Context, ip string) (*domain.BlacklistItem, error)

	// Delete removes the row for ip; idempotent on a missing row.
	Delete(ctx context.Context, ip string) error

	// RecordFailure atomically increments tries for ip (creating the row
	// on first failure) and, once tries reaches domain.MaxLoginTries, sets
	// blocked=now and blocked_until=now+domain.BlockWindow. Returns the
	// row after the update.
	RecordFailure(ctx context.Context, ip string, now time.Time) (*domain.BlacklistItem, error)
}
