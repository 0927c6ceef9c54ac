package launcher

import (
	"syscall"
	"time"
)

// Terminate asks the child to exit with SIGTERM and escalates to SIGKILL if
// the output stream is still open after grace. A grace of zero or less uses
// the launch's configured grace period. Terminate does not reap the child;
// the caller still owns Wait. Safe to call on a child that has already
// exited.
func (p *Process) Terminate(grace time.Duration) {
	if p.cmd.Process == nil {
		return
	}
	if grace <= 0 {
		grace = p.grace
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Debug().Str("id", p.ID).Err(err).Msg("SIGTERM failed")
	}

	// The reader observes end-of-stream shortly after the child dies, so
	// its done channel doubles as the "child is gone" signal here.
	select {
	case <-p.reader.done:
		return
	case <-time.After(grace):
	}

	if err := p.cmd.Process.Kill(); err != nil {
		logger.Debug().Str("id", p.ID).Err(err).Msg("SIGKILL failed")
	}
}
