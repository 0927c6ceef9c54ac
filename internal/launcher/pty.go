package launcher

import (
	"context"
	"fmt"

	"github.com/creack/pty"
)

// LaunchPty spawns cmd.Args with stdout and stderr joined onto the slave
// side of a fresh pseudo-terminal and streams the master side to cmd.Sink.
// The child sees a tty on both streams, so tools that switch to full
// buffering when piped keep their interactive line-buffered behavior.
//
// With cmd.TeeStderr set, the raw captured bytes are additionally mirrored
// to the parent's stderr before decoding.
func LaunchPty(ctx context.Context, cmd Command) (*Process, error) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "" {
		return nil, fmt.Errorf("%w: empty argument vector", ErrSpawnFailed)
	}

	// Open performs the full master/slave allocation (grant, unlock, open
	// slave) and releases any partially opened descriptors on failure.
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: pty: %v", ErrTransportUnavailable, err)
	}

	c := buildCmd(cmd)
	c.Stdout = tty
	c.Stderr = tty

	if err := c.Start(); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	// The child holds its own duplicate of the slave. Dropping the parent's
	// copy lets the master observe closure once the child exits.
	tty.Close()

	return startProcess(ctx, c, cmd, ptmx, ptmx), nil
}

// Resize changes the pseudo-terminal's window size. It fails for
// pipe-variant launches and after capture has finished (the reader closes
// the master when the stream ends).
func (p *Process) Resize(cols, rows int) error {
	if p.ptmx == nil {
		return fmt.Errorf("launcher: resize: not a pty launch")
	}
	return pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}
