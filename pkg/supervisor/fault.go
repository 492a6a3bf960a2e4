package supervisor

import (
	"fmt"
	"runtime/debug"
)

// Fault is one intercepted program fault: the recovered cause plus the
// stack captured at the interception point.
type Fault struct {
	Cause any
	Stack []byte
}

// Detail formats the fault for the operator console and the fault record.
func (f Fault) Detail() string {
	if len(f.Stack) == 0 {
		return fmt.Sprintf("%v", f.Cause)
	}
	return fmt.Sprintf("%v\n\n%s", f.Cause, f.Stack)
}

// Protect is the top-level fault boundary. It runs fn and guarantees that
// any panic or returned error passes through Handle before the process may
// terminate or restart; nothing escapes uncaught.
func (h *Handler) Protect(fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			h.Handle(Fault{Cause: r, Stack: debug.Stack()})
		}
	}()

	if err := fn(); err != nil {
		h.Handle(Fault{Cause: err})
	}
}
