package netlink

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/device"
	"github.com/vigilsys/vigil/pkg/indicator"
	"github.com/vigilsys/vigil/pkg/log"
	"github.com/vigilsys/vigil/pkg/metrics"
)

// ErrNotConnected is returned by Connect only when the restarter declines
// to terminate the process (test fakes do; the real restarter never
// returns).
var ErrNotConnected = errors.New("netlink: not connected")

// Credentials identify the network to associate with.
type Credentials struct {
	SSID       string
	Passphrase string
}

// Radio is the external network handle.
type Radio interface {
	// Activate powers the radio on.
	Activate() error

	// Associate initiates association with the network. Association
	// completes asynchronously; poll IsAssociated for the result.
	Associate(creds Credentials) error

	// IsAssociated reports whether the radio currently has an association.
	IsAssociated() bool
}

// Config bounds the retry loop.
type Config struct {
	// MaxAttempts is how many association polls are made before giving up.
	MaxAttempts int

	// Interval is the pause between polls.
	Interval time.Duration
}

// DefaultConfig returns the stock retry bounds: 10 polls, 3 seconds apart.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 10,
		Interval:    3 * time.Second,
	}
}

// Connector drives a network association attempt to completion or forces a
// hard restart. Connectivity failure at boot is treated as equivalent to a
// crash: a device with no network cannot serve its purpose or receive
// fixes, so this layer never returns a retryable error.
type Connector struct {
	radio     Radio
	ind       indicator.Indicator
	restarter device.Restarter
	cfg       Config
	sleep     func(time.Duration)
	logger    zerolog.Logger
}

// NewConnector creates a connector with the given collaborators.
func NewConnector(radio Radio, ind indicator.Indicator, restarter device.Restarter, cfg Config) *Connector {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Connector{
		radio:     radio,
		ind:       ind,
		restarter: restarter,
		cfg:       cfg,
		sleep:     time.Sleep,
		logger:    log.WithComponent("netlink"),
	}
}

// WithSleep overrides the sleep function, for tests.
func (c *Connector) WithSleep(sleep func(time.Duration)) *Connector {
	c.sleep = sleep
	return c
}

// Connect runs the bounded retry loop: indicator off, radio on, one
// interval of settling time, then association polls once per interval.
// On success the indicator turns on and Connect returns nil. If the
// attempt budget runs out the whole process is hard-restarted.
func (c *Connector) Connect(creds Credentials) error {
	c.ind.Off()
	c.logger.Debug().Str("ssid", creds.SSID).Msg("attempting network association")

	if err := c.radio.Activate(); err != nil {
		return fmt.Errorf("activate radio: %w", err)
	}
	c.sleep(c.cfg.Interval)

	if err := c.radio.Associate(creds); err != nil {
		return fmt.Errorf("associate: %w", err)
	}

	for attempt := 1; ; attempt++ {
		metrics.ConnectPolls.Inc()
		if c.radio.IsAssociated() {
			c.ind.On()
			metrics.ConnectSessions.WithLabelValues("connected").Inc()
			c.logger.Info().Int("attempts", attempt).Msg("network associated")
			return nil
		}

		c.logger.Debug().Int("attempt", attempt).Int("max", c.cfg.MaxAttempts).Msg("not associated yet")

		if attempt >= c.cfg.MaxAttempts {
			metrics.ConnectSessions.WithLabelValues("restarted").Inc()
			metrics.Restarts.Inc()
			c.logger.Error().Int("attempts", attempt).Msg("max connection attempts exceeded, restarting device")
			c.restarter.Restart()
			return ErrNotConnected
		}

		c.sleep(c.cfg.Interval)
	}
}
