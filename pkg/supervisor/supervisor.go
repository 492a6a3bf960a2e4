package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/device"
	"github.com/vigilsys/vigil/pkg/events"
	"github.com/vigilsys/vigil/pkg/faultlog"
	"github.com/vigilsys/vigil/pkg/guard"
	"github.com/vigilsys/vigil/pkg/indicator"
	"github.com/vigilsys/vigil/pkg/log"
	"github.com/vigilsys/vigil/pkg/metrics"
	"github.com/vigilsys/vigil/pkg/notify"
)

// State is the supervisor's position in its per-boot state machine.
type State string

const (
	StateRunning    State = "running"
	StateLogging    State = "logging"
	StateRestarting State = "restarting"
	StateNotifying  State = "notifying"
	StateDegraded   State = "degraded_signal"
)

// Config tunes the fault handler.
type Config struct {
	// DeviceID identifies this device in escalation payloads.
	DeviceID string

	// MaxResets is the crash budget (default guard.DefaultMaxResets).
	MaxResets int

	// FlashCount and FlashInterval shape the degraded signal. The default
	// slow flash (3000 toggles, 3 seconds apart) lasts on the order of
	// hours: long enough that a human notices before the device goes dark.
	FlashCount    int
	FlashInterval time.Duration

	// EscalateTimeout bounds the escalation POST.
	EscalateTimeout time.Duration
}

// DefaultConfig returns the stock handler tuning.
func DefaultConfig(deviceID string) Config {
	return Config{
		DeviceID:        deviceID,
		MaxResets:       guard.DefaultMaxResets,
		FlashCount:      3000,
		FlashInterval:   3 * time.Second,
		EscalateTimeout: 30 * time.Second,
	}
}

// Handler orchestrates fault recovery: persist evidence, consult the
// crash-loop guard, then either hard-restart or escalate and enter the
// degraded signal state. Exactly one logical thread of control exists per
// boot, so Handler keeps no locks; a restart is the concurrency boundary.
type Handler struct {
	cfg       Config
	faults    faultlog.Store
	notifier  notify.Notifier
	ind       indicator.Indicator
	restarter device.Restarter
	broker    *events.Broker
	sleep     func(time.Duration)
	logger    zerolog.Logger
	state     State
}

// NewHandler wires a fault handler from its collaborators.
func NewHandler(cfg Config, faults faultlog.Store, notifier notify.Notifier, ind indicator.Indicator, restarter device.Restarter, broker *events.Broker) *Handler {
	if cfg.MaxResets <= 0 {
		cfg.MaxResets = guard.DefaultMaxResets
	}
	if cfg.FlashCount <= 0 {
		cfg.FlashCount = 3000
	}
	if cfg.FlashInterval <= 0 {
		cfg.FlashInterval = 3 * time.Second
	}
	if cfg.EscalateTimeout <= 0 {
		cfg.EscalateTimeout = 30 * time.Second
	}

	h := &Handler{
		cfg:       cfg,
		faults:    faults,
		notifier:  notifier,
		ind:       ind,
		restarter: restarter,
		broker:    broker,
		sleep:     time.Sleep,
		logger:    log.WithComponent("supervisor"),
	}
	h.setState(StateRunning)
	return h
}

// WithSleep overrides the sleep function, for tests.
func (h *Handler) WithSleep(sleep func(time.Duration)) *Handler {
	h.sleep = sleep
	return h
}

// State returns the current supervisor state.
func (h *Handler) State() State {
	return h.state
}

func (h *Handler) setState(s State) {
	h.state = s
	metrics.SetSupervisorState(string(s))
	if h.broker != nil {
		h.broker.Emit(events.EventStateChanged, string(s), nil)
	}
}

// Handle processes one intercepted fault to a terminal outcome: either a
// hard restart (the normal recovery: when in doubt, reboot cleanly) or,
// once the crash budget is exhausted, a remote escalation followed by the
// degraded signal state. Handle only returns when a test restarter
// declines to terminate the process or the degraded flash finishes.
func (h *Handler) Handle(fault Fault) {
	h.logger.Error().Msg("-- fault intercepted --")
	h.setState(StateLogging)

	detail := fault.Detail()
	name, err := h.faults.Record(detail)
	if err != nil {
		// Evidence already went to the console inside Record; keep going,
		// the guard verdict matters more than the lost file.
		h.logger.Error().Err(err).Msg("failed to persist fault record")
	} else if h.broker != nil {
		h.broker.Emit(events.EventFaultRecorded, detail, map[string]string{"record": name})
	}

	giveUp, err := guard.ShouldGiveUp(h.faults, h.cfg.MaxResets)
	if err != nil {
		// Unreadable budget: take the normal recovery path. A reboot can
		// fix a wedged volume; a premature escalation cannot.
		h.logger.Error().Err(err).Msg("crash budget unreadable, assuming recoverable")
		giveUp = false
	}

	if !giveUp {
		h.setState(StateRestarting)
		if h.broker != nil {
			h.broker.Emit(events.EventRestartRequested, "fault recovery", map[string]string{"record": name})
		}
		metrics.Restarts.Inc()
		h.restarter.Restart()
		return
	}

	h.escalate(detail)

	h.setState(StateDegraded)
	h.logger.Error().
		Int("flash_count", h.cfg.FlashCount).
		Dur("flash_interval", h.cfg.FlashInterval).
		Msg("crash budget exhausted, entering degraded signal state")
	indicator.Flash(h.ind, h.cfg.FlashCount, h.cfg.FlashInterval, h.sleep)
}

// escalate POSTs the fault to the operator endpoint. Failure is logged and
// not retried; the degraded signal must not be blocked behind a hung retry.
func (h *Handler) escalate(detail string) {
	h.setState(StateNotifying)

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.EscalateTimeout)
	defer cancel()

	if err := h.notifier.Escalate(ctx, h.cfg.DeviceID, detail); err != nil {
		metrics.Escalations.WithLabelValues("failed").Inc()
		if h.broker != nil {
			h.broker.Emit(events.EventEscalationFailed, err.Error(), nil)
		}
		h.logger.Error().Err(err).Msg("escalation failed")
		return
	}

	metrics.Escalations.WithLabelValues("sent").Inc()
	if h.broker != nil {
		h.broker.Emit(events.EventEscalationSent, h.cfg.DeviceID, nil)
	}
}
