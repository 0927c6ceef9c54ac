package launcher

import (
	"os"
	"syscall"
	"time"
)

// Result holds the outcome of a finished launch.
type Result struct {
	// Status is the raw platform exit status as reported by wait(2).
	Status syscall.WaitStatus

	// ExitCode is the decoded exit code, or -1 if the child was terminated
	// by a signal.
	ExitCode int

	// Duration measures spawn to reap.
	Duration time.Duration

	// ReaderErr is the error that ended output capture, when it was neither
	// EOF nor the pty closing. Capture ending early is not a launch
	// failure; this field exists for callers that want the diagnostic.
	ReaderErr error
}

func newResult(state *os.ProcessState, d time.Duration, readerErr error) Result {
	res := Result{ExitCode: -1, Duration: d, ReaderErr: readerErr}
	if state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok {
			res.Status = ws
		}
		res.ExitCode = state.ExitCode()
	}
	return res
}

// Exited reports whether the child terminated normally rather than by
// signal.
func (r Result) Exited() bool { return r.Status.Exited() }

// Success reports a normal exit with status zero.
func (r Result) Success() bool { return r.Status.Exited() && r.Status.ExitStatus() == 0 }

// Signaled reports whether the child was terminated by a signal.
func (r Result) Signaled() bool { return r.Status.Signaled() }
