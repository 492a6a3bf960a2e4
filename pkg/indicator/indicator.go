package indicator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/log"
)

// Indicator is the single binary on-board signal. It carries no semantics
// beyond on/off/toggle; the supervisor decides what the pattern means.
type Indicator interface {
	On()
	Off()
	Toggle()
}

// Flash toggles the indicator count times with the given interval between
// toggles, then leaves it off. The sleep function is injectable so the
// degraded-signal loop (thousands of slow toggles) stays testable.
func Flash(ind Indicator, count int, interval time.Duration, sleep func(time.Duration)) {
	if sleep == nil {
		sleep = time.Sleep
	}
	for i := 0; i < count; i++ {
		ind.Toggle()
		sleep(interval)
	}
	ind.Off()
}

// Console is an Indicator for hosts without an on-board LED; it mirrors
// signal transitions to the structured log at debug level.
type Console struct {
	logger zerolog.Logger
	lit    bool
}

// NewConsole creates a console-backed indicator.
func NewConsole() *Console {
	return &Console{logger: log.WithComponent("indicator")}
}

func (c *Console) On() {
	c.lit = true
	c.logger.Debug().Bool("lit", true).Msg("indicator")
}

func (c *Console) Off() {
	c.lit = false
	c.logger.Debug().Bool("lit", false).Msg("indicator")
}

func (c *Console) Toggle() {
	if c.lit {
		c.Off()
	} else {
		c.On()
	}
}

// Noop is an Indicator that does nothing.
type Noop struct{}

func (Noop) On()     {}
func (Noop) Off()    {}
func (Noop) Toggle() {}
