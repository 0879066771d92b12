package repository

import (
	"context"

	"github.com/apimeister/unpatched-server/internal/domain"
)

// HostFilter narrows List; zero-value fields are not applied. Values
// are always bound as query parameters by the implementation, never
// concatenated into the query text.
type HostFilter struct {
	Alias  string
	Active *bool
}

type HostRepository interface {
	Create(ctx context.Context, h *domain.Host) (*domain.Host, error)
	GetByID(ctx context.Context, id string) (*domain.Host, error)
	List(ctx context.Context, filter HostFilter) ([]*domain.Host, error)
	Count(ctx context.Context) (int, error)

	// Checkin updates the existing host row with the self-described fields
	// an agent reports on connect: alias, attributes, and the socket's real
	// peer address — never the IP the agent itself claims. It also sets
	// last_checkin to now.
	Checkin(ctx context.Context, id, alias string, attributes []string, ip string) (*domain.Host, error)

	// TouchLastCheckin is called whenever the agent's pong keeps the
	// session alive, independent of a full self-description.
	TouchLastCheckin(ctx context.Context, id string) error

	UpdateField(ctx context.Context, id, column, value string) error
	Delete(ctx context.Context, id string) error
}
