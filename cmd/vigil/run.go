package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigilsys/vigil/pkg/clock"
	"github.com/vigilsys/vigil/pkg/config"
	"github.com/vigilsys/vigil/pkg/device"
	"github.com/vigilsys/vigil/pkg/events"
	"github.com/vigilsys/vigil/pkg/faultlog"
	"github.com/vigilsys/vigil/pkg/indicator"
	"github.com/vigilsys/vigil/pkg/log"
	"github.com/vigilsys/vigil/pkg/metrics"
	"github.com/vigilsys/vigil/pkg/netlink"
	"github.com/vigilsys/vigil/pkg/notify"
	"github.com/vigilsys/vigil/pkg/state"
	"github.com/vigilsys/vigil/pkg/supervisor"
	"github.com/vigilsys/vigil/pkg/timesync"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the resilience supervisor",
	Long: `Run starts the main supervisor loop: establish connectivity, keep
re-establishing it when it drops, run gated maintenance tasks, and route
every uncaught fault through the crash-loop guard.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
		logger := log.WithDeviceID(cfg.DeviceID)

		clk := buildClock(cfg)
		faults, err := faultlog.NewDirStore(cfg.Storage.FaultDir, clk)
		if err != nil {
			return fmt.Errorf("open fault log: %v", err)
		}
		metrics.RegisterComponent("faultlog", true, "")

		if err := os.MkdirAll(filepath.Dir(cfg.Storage.StateFile), 0o755); err != nil {
			return fmt.Errorf("create state dir: %v", err)
		}
		timers, err := state.Open(cfg.Storage.StateFile)
		if err != nil {
			return fmt.Errorf("open state store: %v", err)
		}
		defer timers.Close()
		metrics.RegisterComponent("state", true, "")

		boots, err := timers.IncrementBoot()
		if err != nil {
			logger.Warn().Err(err).Msg("boot counter unavailable")
		}
		logger.Info().Uint64("boot", boots).Msg("vigil starting")

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()
		go mirrorEvents(broker.Subscribe())

		if cfg.MetricsAddr != "" {
			go func() {
				if err := metrics.Serve(cfg.MetricsAddr); err != nil {
					logger.Warn().Err(err).Msg("metrics server stopped")
				}
			}()
		}

		ind := indicator.NewConsole()
		restarter := device.ExitRestarter{}

		radio, err := buildRadio(cfg)
		if err != nil {
			return err
		}
		connector := netlink.NewConnector(radio, ind, restarter, netlink.Config{
			MaxAttempts: cfg.Network.MaxAttempts,
			Interval:    time.Duration(cfg.Network.IntervalSeconds) * time.Second,
		})

		handler := supervisor.NewHandler(supervisor.Config{
			DeviceID:      cfg.DeviceID,
			MaxResets:     cfg.Supervisor.MaxResets,
			FlashCount:    cfg.Supervisor.FlashCount,
			FlashInterval: time.Duration(cfg.Supervisor.FlashIntervalSeconds) * time.Second,
		}, faults, notify.NewHTTPNotifier(cfg.NotifyURL), ind, restarter, broker)

		runner := supervisor.NewRunner(supervisor.RunnerConfig{
			Connector:      connector,
			Radio:          radio,
			Credentials:    netlink.Credentials{SSID: cfg.Network.SSID, Passphrase: cfg.Network.Passphrase},
			Timers:         timers,
			Faults:         faults,
			Broker:         broker,
			Clock:          clk,
			Tick:           time.Duration(cfg.Supervisor.TickSeconds) * time.Second,
			RetentionHours: cfg.Supervisor.RetentionHours,
		})
		registerMaintenance(runner, cfg, faults, clk)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Everything below the boundary: panics and run errors become
		// faults, never uncaught exits.
		handler.Protect(func() error {
			return runner.Run(ctx)
		})

		logger.Info().Msg("shutdown complete")
		return nil
	},
}

// mirrorEvents forwards broker events to the structured log.
func mirrorEvents(sub events.Subscriber) {
	logger := log.WithComponent("events")
	for ev := range sub {
		logger.Debug().
			Str("id", ev.ID).
			Str("type", string(ev.Type)).
			Interface("metadata", ev.Metadata).
			Msg(ev.Message)
	}
}

// buildRadio picks the radio backend. With an explicit probe address the
// OS owns association and vigil only verifies reachability; otherwise the
// notify endpoint doubles as the reachability target, since a device that
// cannot reach its operator is as good as offline.
func buildRadio(cfg config.Config) (netlink.Radio, error) {
	addr := cfg.Network.ProbeAddr
	if addr == "" {
		u, err := url.Parse(cfg.NotifyURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("no probe_addr and notify_url %q has no usable host", cfg.NotifyURL)
		}
		addr = u.Host
		if u.Port() == "" {
			if u.Scheme == "https" {
				addr += ":443"
			} else {
				addr += ":80"
			}
		}
	}
	return netlink.NewProbeRadio(addr), nil
}

// buildClock picks the clock collaborator. Devices configured with a plain
// UTC offset get a fixed zone so fault record names match the site's local
// time; everything else uses the host zone.
func buildClock(cfg config.Config) clock.Clock {
	if cfg.Clock.Zone == "" {
		return clock.System
	}
	return clock.FixedOffset(cfg.Clock.Zone, cfg.Clock.OffsetSeconds)
}

// registerMaintenance wires the gated background tasks: the periodic fault
// record purge and, when configured, a clock drift check and an OTA
// availability probe. The OTA payload itself is out of scope; the probe
// only answers "is an update server reachable", leaving the fetch to the
// updater.
func registerMaintenance(runner *supervisor.Runner, cfg config.Config, faults faultlog.Store, clk clock.Clock) {
	runner.AddTask(supervisor.MaintenanceTask{
		Name:     "fault-purge",
		Interval: time.Duration(cfg.Maintenance.PurgeSeconds) * time.Second,
		Run: func(context.Context) error {
			_, _, err := faults.Purge(cfg.Supervisor.RetentionHours)
			return err
		},
	})

	if cfg.Maintenance.TimeSyncURL != "" {
		syncer := timesync.NewHTTPDateSyncer(cfg.Maintenance.TimeSyncURL, clk,
			time.Duration(cfg.Maintenance.MaxDriftSeconds)*time.Second)
		runner.AddTask(supervisor.MaintenanceTask{
			Name:     "time-sync",
			Interval: time.Duration(cfg.Maintenance.TimeSyncSeconds) * time.Second,
			// An unreachable time reference is a fault: record names and
			// the interval gate both lean on the clock.
			Fatal: true,
			Run:   syncer.Sync,
		})
	}

	if cfg.Maintenance.OTAURL != "" {
		client := &http.Client{Timeout: 15 * time.Second}
		runner.AddTask(supervisor.MaintenanceTask{
			Name:     "ota-check",
			Interval: time.Duration(cfg.Maintenance.OTACheckSeconds) * time.Second,
			Run: func(ctx context.Context) error {
				req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.Maintenance.OTAURL, nil)
				if err != nil {
					return err
				}
				resp, err := client.Do(req)
				if err != nil {
					return err
				}
				resp.Body.Close()
				otaLogger := log.WithComponent("ota")
				otaLogger.Info().Str("status", resp.Status).Msg("update server checked")
				return nil
			},
		})
	}
}
