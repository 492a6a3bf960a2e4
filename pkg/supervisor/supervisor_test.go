package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsys/vigil/pkg/clock"
	"github.com/vigilsys/vigil/pkg/faultlog"
	"github.com/vigilsys/vigil/pkg/indicator"
	"github.com/vigilsys/vigil/pkg/notify"
)

type fakeRestarter struct {
	restarts int
}

func (f *fakeRestarter) Restart() { f.restarts++ }

type fakeNotifier struct {
	calls     int
	machine   string
	traceback string
	err       error
}

func (f *fakeNotifier) Escalate(_ context.Context, machine, traceback string) error {
	f.calls++
	f.machine = machine
	f.traceback = traceback
	return f.err
}

type countingIndicator struct {
	toggles int
}

func (c *countingIndicator) On()     {}
func (c *countingIndicator) Off()    {}
func (c *countingIndicator) Toggle() { c.toggles++ }

// newStoreWithPriorFaults seeds a fault log with n prior records.
func newStoreWithPriorFaults(t *testing.T, n int) faultlog.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := faultlog.NewDirStore(dir, clock.System)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("2024-1-1-0-0-%d-traceback.log", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("prior"), 0o644))
	}
	return store
}

func testHandler(faults faultlog.Store, notifier notify.Notifier, restarter *fakeRestarter, ind indicator.Indicator) *Handler {
	cfg := Config{
		DeviceID:      "greenhouse-7",
		MaxResets:     3,
		FlashCount:    5,
		FlashInterval: time.Millisecond,
	}
	return NewHandler(cfg, faults, notifier, ind, restarter, nil).
		WithSleep(func(time.Duration) {})
}

func TestHandle_UnderBudgetRestarts(t *testing.T) {
	for _, prior := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("%d prior records", prior), func(t *testing.T) {
			faults := newStoreWithPriorFaults(t, prior)
			notifier := &fakeNotifier{}
			restarter := &fakeRestarter{}

			h := testHandler(faults, notifier, restarter, indicator.Noop{})
			h.Handle(Fault{Cause: errors.New("sensor read failed")})

			assert.Equal(t, 1, restarter.restarts, "should restart")
			assert.Equal(t, 0, notifier.calls, "should not notify")
			assert.Equal(t, StateRestarting, h.State())

			// The new fault was persisted before the verdict
			count, err := faults.Count()
			require.NoError(t, err)
			assert.Equal(t, prior+1, count)
		})
	}
}

func TestHandle_ExhaustedBudgetEscalates(t *testing.T) {
	faults := newStoreWithPriorFaults(t, 3)
	notifier := &fakeNotifier{}
	restarter := &fakeRestarter{}
	ind := &countingIndicator{}

	h := testHandler(faults, notifier, restarter, ind)
	h.Handle(Fault{Cause: errors.New("sensor read failed"), Stack: []byte("goroutine 1 ...")})

	assert.Equal(t, 0, restarter.restarts, "no restart once the budget is exhausted")
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "greenhouse-7", notifier.machine)
	assert.Contains(t, notifier.traceback, "sensor read failed")
	assert.Contains(t, notifier.traceback, "goroutine 1")
	assert.Equal(t, StateDegraded, h.State())
	assert.Equal(t, 5, ind.toggles, "degraded signal flashes the configured count")
}

func TestHandle_EscalationFailureStillDegrades(t *testing.T) {
	faults := newStoreWithPriorFaults(t, 3)
	notifier := &fakeNotifier{err: errors.New("endpoint unreachable")}
	restarter := &fakeRestarter{}
	ind := &countingIndicator{}

	h := testHandler(faults, notifier, restarter, ind)
	h.Handle(Fault{Cause: "boom"})

	assert.Equal(t, 1, notifier.calls, "escalation attempted once, never retried")
	assert.Equal(t, 0, restarter.restarts)
	assert.Equal(t, StateDegraded, h.State())
	assert.Equal(t, 5, ind.toggles, "degraded signal not blocked by POST failure")
}

func TestHandle_EscalationPayloadOverHTTP(t *testing.T) {
	var received notify.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer srv.Close()

	faults := newStoreWithPriorFaults(t, 3)
	h := testHandler(faults, notify.NewHTTPNotifier(srv.URL), &fakeRestarter{}, indicator.Noop{})
	h.Handle(Fault{Cause: errors.New("flash write failed")})

	assert.Equal(t, "greenhouse-7", received.Machine)
	assert.Contains(t, received.Traceback, "flash write failed")
	assert.Equal(t, StateDegraded, h.State())
}

func TestProtect_PanicReachesHandler(t *testing.T) {
	faults := newStoreWithPriorFaults(t, 0)
	restarter := &fakeRestarter{}
	h := testHandler(faults, &fakeNotifier{}, restarter, indicator.Noop{})

	h.Protect(func() error {
		panic("index out of range")
	})

	assert.Equal(t, 1, restarter.restarts, "panic flows through the handler to a restart")

	count, err := faults.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "panic was persisted as a fault record")
}

func TestProtect_ErrorReachesHandler(t *testing.T) {
	faults := newStoreWithPriorFaults(t, 0)
	restarter := &fakeRestarter{}
	h := testHandler(faults, &fakeNotifier{}, restarter, indicator.Noop{})

	h.Protect(func() error {
		return errors.New("run loop gave up")
	})

	assert.Equal(t, 1, restarter.restarts)
}

func TestProtect_CleanReturn(t *testing.T) {
	faults := newStoreWithPriorFaults(t, 0)
	restarter := &fakeRestarter{}
	h := testHandler(faults, &fakeNotifier{}, restarter, indicator.Noop{})

	h.Protect(func() error { return nil })

	assert.Equal(t, 0, restarter.restarts)
	count, err := faults.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFaultDetail(t *testing.T) {
	plain := Fault{Cause: errors.New("boom")}
	assert.Equal(t, "boom", plain.Detail())

	withStack := Fault{Cause: "boom", Stack: []byte("goroutine 1 [running]:")}
	detail := withStack.Detail()
	assert.Contains(t, detail, "boom")
	assert.Contains(t, detail, "goroutine 1 [running]:")
}
