/*
Package supervisor is the resilience core: it intercepts faults, persists
forensic evidence, and decides between rebooting and escalating.

Per boot, the handler walks a small state machine:

	RUNNING --(fault)--> LOGGING --(guard: recoverable)--> RESTARTING
	RUNNING --(fault)--> LOGGING --(guard: exhausted)----> NOTIFYING --> DEGRADED_SIGNAL

RESTARTING terminates the process so the boot manager relaunches it.
DEGRADED_SIGNAL is terminal for the boot: a slow, hours-long indicator
flash that waits for a human, because once the crash budget is exhausted
another automatic reboot would just crash again. No transition leaves
DEGRADED_SIGNAL except external intervention.

The guard's verdict comes purely from the persisted fault record count;
the filesystem is the crash counter, which is why it survives the very
restarts it bounds.

Runner is the companion main loop: connect at boot, reconnect on loss, and
run gated maintenance tasks. It is executed inside Handler.Protect so every
panic or error it produces flows through the fault handler.
*/
package supervisor
