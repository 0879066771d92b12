package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
)

// DefaultTickInterval is the cadence the materializer and dispatcher
// tick at, and the interval between liveness pings.
const DefaultTickInterval = 5 * time.Second

// Deps bundles the repositories a Session needs to run its three tasks.
type Deps struct {
	Hosts      repository.HostRepository
	Scripts    repository.ScriptRepository
	Schedules  repository.ScheduleRepository
	Executions repository.ExecutionRepository
}

// Session is one admitted agent connection, bound to a host, running
// the three cooperative tasks over a shared snapshot cell and sender.
type Session struct {
	host         *hostCell
	send         *sender
	conn         Conn
	materializer *Materializer
	dispatcher   *Dispatcher
	collector    *Collector
	logger       *slog.Logger
}

// New builds a Session bound to host, wiring the materializer,
// dispatcher, and collector. The WebSocket upgrade handler is
// responsible for admission and passing in the already-resolved Host row.
func New(host *domain.Host, conn Conn, deps Deps, logger *slog.Logger, tickInterval time.Duration, sevenFieldCron bool) *Session {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	logger = logger.With("host_id", host.ID, "alias", host.Alias)

	cell := newHostCell(host)
	send := newSender(conn)

	return &Session{
		host: cell,
		send: send,
		conn: conn,
		materializer: NewMaterializer(
			cell, deps.Schedules, deps.Executions, logger, tickInterval, sevenFieldCron,
		),
		dispatcher: NewDispatcher(
			cell, send, deps.Schedules, deps.Scripts, deps.Executions, logger, tickInterval,
		),
		collector: NewCollector(
			cell, send, conn, deps.Hosts, deps.Executions, logger,
		),
		logger: logger,
	}
}

// Run blocks until the collector's receive loop ends (peer disconnect,
// Close frame, or read error). Canceling ctx stops the materializer and
// dispatcher but does not interrupt a read in progress, so it does not
// by itself end Run. All three tasks have joined, and the connection is
// closed, before Run returns.
func (s *Session) Run(ctx context.Context) {
	metrics.SessionsOpenedTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	// Opening ping, before the loops start: the agent learns the session
	// is live without waiting out the first tick.
	if host := s.host.Get(); host != nil {
		if err := s.send.SendPing(pingBody(host.Alias)); err != nil {
			s.logger.Debug("opening ping", "error", err)
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.materializer.Run(sessionCtx)
	}()
	go func() {
		defer wg.Done()
		s.dispatcher.Run(sessionCtx)
	}()

	// The collector owns the receive loop; its exit is the only signal
	// that tears the whole session down (closed transport, peer Close,
	// or fatal read error — never a transient store error).
	s.collector.Run(sessionCtx)
	cancel()

	wg.Wait()
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("close session connection", "error", err)
	}
	metrics.SessionsClosedTotal.WithLabelValues("peer_disconnect").Inc()
	s.logger.Info("session closed")
}
