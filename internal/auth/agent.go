package auth

import (
	"context"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/google/uuid"
)

// AdmitAgent authenticates an agent connection: apiKey must parse as a UUID
// matching some host's id, that host must be active, and its last
// check-in must be within domain.StaleAfter. Returns the admitted host
// or domain.ErrAgentUnauthorized.
func AdmitAgent(ctx context.Context, hosts repository.HostRepository, apiKey string, now time.Time) (*domain.Host, error) {
	if _, err := uuid.Parse(apiKey); err != nil {
		return nil, domain.ErrAgentUnauthorized
	}

	host, err := hosts.GetByID(ctx, apiKey)
	if err != nil {
		return nil, domain.ErrAgentUnauthorized
	}
	if !host.Active {
		return nil, domain.ErrAgentUnauthorized
	}
	if host.Stale(now) {
		return nil, domain.ErrAgentUnauthorized
	}
	return host, nil
}
