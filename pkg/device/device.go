package device

import (
	"os"
	"time"

	"github.com/vigilsys/vigil/pkg/log"
)

// RestartExitCode is the exit status the supervisor uses to request a
// relaunch. The boot manager (systemd unit, init script, or hardware
// watchdog shim) treats it like any other non-zero exit and restarts the
// process from scratch.
const RestartExitCode = 3

// Restarter performs a hard restart of the whole process. Restart does not
// return on real deployments; test fakes may return to let assertions run.
type Restarter interface {
	Restart()
}

// ExitRestarter restarts by terminating the process so the boot manager
// relaunches it. A short pause lets pending console output drain first.
type ExitRestarter struct {
	Code int
}

func (r ExitRestarter) Restart() {
	code := r.Code
	if code == 0 {
		code = RestartExitCode
	}
	logger := log.WithComponent("device")
	logger.Warn().Int("exit_code", code).Msg("hard restart requested")
	time.Sleep(500 * time.Millisecond)
	os.Exit(code)
}
