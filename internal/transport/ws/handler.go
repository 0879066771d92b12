// Package ws upgrades admitted agent connections to the bidirectional
// session transport and hands them off to internal/session.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/session"
)

var upgrader = websocket.Upgrader{
	// Agents are arbitrary managed machines, not browsers subject to the
	// same-origin model this check exists for.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the /ws agent endpoint.
type Handler struct {
	hosts          repository.HostRepository
	deps           session.Deps
	logger         *slog.Logger
	tickInterval   time.Duration
	sevenFieldCron bool
}

func NewHandler(hosts repository.HostRepository, deps session.Deps, logger *slog.Logger, tickInterval time.Duration, sevenFieldCron bool) *Handler {
	return &Handler{
		hosts:          hosts,
		deps:           deps,
		logger:         logger.With("component", "ws"),
		tickInterval:   tickInterval,
		sevenFieldCron: sevenFieldCron,
	}
}

// ServeHTTP admits the agent before ever touching the socket:
// an unauthorized agent's upgrade attempt returns 401 and no connection
// is opened.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X_API_KEY")

	host, err := auth.AdmitAgent(r.Context(), h.hosts, apiKey, time.Now())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "host_id", host.ID, "error", err)
		return
	}

	sess := session.New(host, conn, h.deps, h.logger, h.tickInterval, h.sevenFieldCron)
	sess.Run(r.Context())
}
