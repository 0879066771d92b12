package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
)

// Collector owns the receive side of the session. It installs
// the ping/pong handlers and then blocks in ReadMessage until the peer
// closes or a fatal error occurs, at which point Run returns and the
// session tears down the other two tasks.
type Collector struct {
	host       *hostCell
	send       *sender
	conn       Conn
	hosts      repository.HostRepository
	executions repository.ExecutionRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewCollector(
	host *hostCell,
	send *sender,
	conn Conn,
	hosts repository.HostRepository,
	executions repository.ExecutionRepository,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		host:       host,
		send:       send,
		conn:       conn,
		hosts:      hosts,
		executions: executions,
		logger:     logger.With("component", "collector"),
		now:        time.Now,
	}
}

// Run installs the control-frame handlers and drains text/binary frames
// until the connection closes. It always returns on a closed transport,
// a read error, or a Close frame — never on a transient store error.
func (c *Collector) Run(ctx context.Context) {
	c.conn.SetPingHandler(func(string) error {
		if err := c.send.SendPong(pongBody); err != nil {
			c.logger.Warn("reply pong", "error", err)
		}
		return nil
	})
	c.conn.SetPongHandler(func(string) error {
		c.touchCheckin(ctx)
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch messageType {
		case TextMessage:
			c.handleText(ctx, string(data))
		case BinaryMessage:
			c.logger.Debug("ignoring binary frame")
		case CloseMessage:
			return
		default:
			c.logger.Debug("ignoring unrecognized frame", "type", messageType)
		}
	}
}

func (c *Collector) touchCheckin(ctx context.Context) {
	host := c.host.Get()
	if host == nil {
		return
	}
	if err := c.hosts.TouchLastCheckin(ctx, host.ID); err != nil {
		c.logger.Warn("touch last checkin", "host_id", host.ID, "error", err)
	}
}

func (c *Collector) handleText(ctx context.Context, raw string) {
	key, payload, ok := splitFrame(raw)
	if !ok {
		c.logger.Warn("unparseable frame, no key separator", "frame", truncate(raw))
		return
	}

	switch key {
	case frameKeyHost:
		c.handleHostFrame(ctx, payload)
	case frameKeyScript:
		c.handleScriptFrame(ctx, payload)
	default:
		c.logger.Warn("unrecognized frame key", "key", key)
	}
}

// handleHostFrame applies an agent's self-description: alias and
// attributes come from the payload, ip always from the real socket peer.
func (c *Collector) handleHostFrame(ctx context.Context, payload string) {
	body, err := decodeHostFrame(payload)
	if err != nil {
		c.logger.Warn("decode host frame", "error", err)
		return
	}

	id := ""
	if current := c.host.Get(); current != nil {
		id = current.ID
	}
	if id == "" {
		c.logger.Warn("host frame received before session bound to a host")
		return
	}

	updated, err := c.hosts.Checkin(ctx, id, body.Alias, body.Attributes, peerAddr(c.conn.RemoteAddr()))
	if err != nil {
		c.logger.Warn("checkin host", "host_id", id, "error", err)
		return
	}
	c.host.Set(updated)
}

// handleScriptFrame finalizes the execution named in payload with the
// agent's captured output.
func (c *Collector) handleScriptFrame(ctx context.Context, payload string) {
	frame, err := decodeScriptFrame(payload)
	if err != nil {
		c.logger.Warn("decode script frame", "error", err)
		return
	}
	err = c.executions.Complete(ctx, frame.ID, c.now().UTC(), frame.Script.ScriptContent)
	switch {
	case err == nil:
		metrics.ExecutionsCompletedTotal.Inc()
	case errors.Is(err, domain.ErrExecutionNotClaimed):
		// A reply naming an execution that was never claimed (or already
		// completed, or doesn't exist) is a forgeable/stale completion,
		// not a store failure: log and drop it rather than finalize.
		c.logger.Warn("dropping script reply for unclaimed execution", "execution_id", frame.ID)
	default:
		c.logger.Warn("complete execution", "execution_id", frame.ID, "error", err)
	}
}

// peerAddr is the socket's remote "addr:port", stored on the host row
// verbatim.
func peerAddr(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

func truncate(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
