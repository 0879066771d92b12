package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
)

// Dispatcher claims due executions for the bound host every tick and
// hands each one's script to the agent over the shared sender. It also
// carries the session's liveness-ping cadence.
type Dispatcher struct {
	host       *hostCell
	send       *sender
	schedules  repository.ScheduleRepository
	scripts    repository.ScriptRepository
	executions repository.ExecutionRepository
	logger     *slog.Logger
	interval   time.Duration
	now        func() time.Time
}

func NewDispatcher(
	host *hostCell,
	send *sender,
	schedules repository.ScheduleRepository,
	scripts repository.ScriptRepository,
	executions repository.ExecutionRepository,
	logger *slog.Logger,
	interval time.Duration,
) *Dispatcher {
	return &Dispatcher{
		host:       host,
		send:       send,
		schedules:  schedules,
		scripts:    scripts,
		executions: executions,
		logger:     logger.With("component", "dispatcher"),
		interval:   interval,
		now:        time.Now,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.DispatcherCycleDuration.Observe(time.Since(start).Seconds()) }()

	host := d.host.Get()
	if host == nil {
		return
	}

	if err := d.send.SendPing(pingBody(host.Alias)); err != nil {
		d.logger.Warn("send ping", "error", err)
	}

	claimed, err := d.executions.ClaimDue(ctx, host.ID, d.now().UTC())
	if err != nil {
		d.logger.Warn("claim due executions", "error", err)
		return
	}
	if len(claimed) > 0 {
		metrics.ExecutionsClaimedTotal.Add(float64(len(claimed)))
	}

	for _, e := range claimed {
		d.dispatch(ctx, e)
	}
}

// dispatch resolves e's schedule and script and either hands the script
// to the agent or finalizes e as COMPLETED with a not-found output.
func (d *Dispatcher) dispatch(ctx context.Context, e *domain.Execution) {
	sched, err := d.schedules.GetByID(ctx, e.SchedID)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			metrics.ExecutionsSkippedTotal.WithLabelValues("schedule_not_found").Inc()
			d.complete(ctx, e.ID, "Schedule not found, execution skipped")
			return
		}
		d.logger.Warn("resolve schedule", "execution_id", e.ID, "error", err)
		return
	}

	script, err := d.scripts.GetByID(ctx, sched.ScriptID)
	if err != nil {
		if errors.Is(err, domain.ErrScriptNotFound) {
			metrics.ExecutionsSkippedTotal.WithLabelValues("script_not_found").Inc()
			d.complete(ctx, e.ID, "Script not found, execution skipped")
			return
		}
		d.logger.Warn("resolve script", "execution_id", e.ID, "error", err)
		return
	}

	frame, err := encodeDispatchFrame(e.ID, script)
	if err != nil {
		d.logger.Warn("encode dispatch frame", "execution_id", e.ID, "error", err)
		return
	}
	if err := d.send.SendText(frame); err != nil {
		d.logger.Warn("send dispatch frame", "execution_id", e.ID, "error", err)
	}
}

func (d *Dispatcher) complete(ctx context.Context, executionID, output string) {
	if err := d.executions.Complete(ctx, executionID, d.now().UTC(), output); err != nil {
		d.logger.Warn("complete execution", "execution_id", executionID, "error", err)
	}
}
