package supervisor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/clock"
	"github.com/vigilsys/vigil/pkg/events"
	"github.com/vigilsys/vigil/pkg/faultlog"
	"github.com/vigilsys/vigil/pkg/gate"
	"github.com/vigilsys/vigil/pkg/log"
	"github.com/vigilsys/vigil/pkg/metrics"
	"github.com/vigilsys/vigil/pkg/netlink"
	"github.com/vigilsys/vigil/pkg/state"
)

// MaintenanceTask is one piece of periodic background work (time sync, OTA
// check, log purge). The runner consults the interval gate against the
// task's durable last-run timestamp before each attempt.
type MaintenanceTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	// Fatal marks a task whose failure is a fault rather than a retry: the
	// run loop returns the error, and the fault handler takes over. A device
	// that cannot trust its own clock is better off restarting.
	Fatal bool
}

// RunnerConfig wires the run loop's collaborators.
type RunnerConfig struct {
	Connector   *netlink.Connector
	Radio       netlink.Radio
	Credentials netlink.Credentials
	Timers      *state.Store
	Faults      faultlog.Store
	Broker      *events.Broker

	// Clock defaults to the system clock.
	Clock clock.Clock

	// Tick is the run loop cadence (default 5 seconds).
	Tick time.Duration

	// RetentionHours bounds the boot-time fault record purge.
	RetentionHours int
}

// Runner is the main run loop: it establishes connectivity at startup,
// re-runs the retry loop whenever connectivity is lost, and gates periodic
// maintenance work.
type Runner struct {
	cfg    RunnerConfig
	tasks  []MaintenanceTask
	sleep  func(time.Duration)
	logger zerolog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = clock.System
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 5 * time.Second
	}
	if cfg.RetentionHours <= 0 {
		cfg.RetentionHours = faultlog.DefaultRetentionHours
	}
	return &Runner{
		cfg:    cfg,
		sleep:  time.Sleep,
		logger: log.WithComponent("runner"),
	}
}

// WithSleep overrides the sleep function, for tests.
func (r *Runner) WithSleep(sleep func(time.Duration)) *Runner {
	r.sleep = sleep
	return r
}

// AddTask registers a maintenance task.
func (r *Runner) AddTask(task MaintenanceTask) {
	r.tasks = append(r.tasks, task)
}

// Run executes the main loop until ctx is canceled. Errors it returns are
// faults; callers run it inside Handler.Protect so every one of them
// reaches the fault handler.
func (r *Runner) Run(ctx context.Context) error {
	// Boot housekeeping: stale fault evidence must not eat the crash
	// budget forever.
	if found, deleted, err := r.cfg.Faults.Purge(r.cfg.RetentionHours); err != nil {
		r.logger.Warn().Err(err).Msg("boot purge failed")
	} else if r.cfg.Broker != nil && deleted > 0 {
		r.cfg.Broker.Emit(events.EventFaultPurged, "boot purge",
			map[string]string{"found": strconv.Itoa(found), "deleted": strconv.Itoa(deleted)})
	}

	if err := r.cfg.Connector.Connect(r.cfg.Credentials); err != nil {
		return err
	}
	metrics.UpdateComponent("network", true, "")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("run loop stopping")
			return nil
		default:
		}

		if !r.cfg.Radio.IsAssociated() {
			metrics.UpdateComponent("network", false, "association dropped")
			if r.cfg.Broker != nil {
				r.cfg.Broker.Emit(events.EventConnectivityLost, "association dropped", nil)
			}
			r.logger.Warn().Msg("connectivity lost, re-running retry loop")
			if err := r.cfg.Connector.Connect(r.cfg.Credentials); err != nil {
				return err
			}
			metrics.UpdateComponent("network", true, "")
			if r.cfg.Broker != nil {
				r.cfg.Broker.Emit(events.EventConnectivityRestored, "association recovered", nil)
			}
		}

		if err := r.runMaintenance(ctx); err != nil {
			return err
		}
		r.sleep(r.cfg.Tick)
	}
}

// runMaintenance runs every task whose gate has opened. The last-run
// timestamp only advances on success, so a failed task is retried on the
// next tick instead of waiting out another full interval. A failed Fatal
// task stops the loop instead.
func (r *Runner) runMaintenance(ctx context.Context) error {
	for _, task := range r.tasks {
		last, err := r.cfg.Timers.LastRun(task.Name)
		if err != nil {
			r.logger.Warn().Err(err).Str("task", task.Name).Msg("last-run timestamp unreadable")
			continue
		}
		if !gate.ElapsedExceeds(r.cfg.Clock.Now(), last, task.Interval) {
			continue
		}

		if err := task.Run(ctx); err != nil {
			metrics.MaintenanceRuns.WithLabelValues(task.Name, "failed").Inc()
			if task.Fatal {
				r.logger.Error().Err(err).Str("task", task.Name).Msg("fatal maintenance task failed")
				return fmt.Errorf("maintenance task %s: %w", task.Name, err)
			}
			r.logger.Warn().Err(err).Str("task", task.Name).Msg("maintenance task failed")
			continue
		}

		metrics.MaintenanceRuns.WithLabelValues(task.Name, "ok").Inc()
		if r.cfg.Broker != nil {
			r.cfg.Broker.Emit(events.EventMaintenanceRan, task.Name, nil)
		}
		if err := r.cfg.Timers.SetLastRun(task.Name, r.cfg.Clock.Now()); err != nil {
			r.logger.Warn().Err(err).Str("task", task.Name).Msg("failed to advance last-run timestamp")
		}
	}
	return nil
}
