package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// readChunkSize is how many bytes the reader pulls from the transport per
// read.
const readChunkSize = 8192

// DefaultGracePeriod bounds the SIGTERM to SIGKILL escalation when a launch
// is terminated without an explicit grace period.
const DefaultGracePeriod = 5 * time.Second

var (
	// ErrTransportUnavailable means the pipe or pty machinery could not be
	// allocated. No process was spawned and no goroutine was started.
	ErrTransportUnavailable = errors.New("launcher: transport unavailable")

	// ErrSpawnFailed means process creation itself failed. Both transport
	// descriptors were closed before the error propagated.
	ErrSpawnFailed = errors.New("launcher: spawn failed")
)

// Sink consumes one decoded chunk of child output. It is invoked strictly
// sequentially from the reader goroutine, never from the caller's goroutine,
// and it gates subsequent reads, so it must not block indefinitely.
type Sink func(text string)

// Command describes a child process to launch.
type Command struct {
	// Args is the argument vector. Args[0] is the executable path and must
	// be non-empty. No shell parsing or quoting is performed.
	Args []string

	// Env is the child's environment as KEY=value assignments. A nil or
	// empty slice spawns the child with an empty environment; the parent's
	// environment is never inherited implicitly.
	Env []string

	// Sink receives each decoded output chunk. Nil discards output.
	Sink Sink

	// TeeStderr mirrors the raw captured bytes to the parent's stderr,
	// unbuffered, before decoding. Honored by the pty variant only.
	TeeStderr bool

	// GracePeriod is how long Terminate and context cancellation wait after
	// SIGTERM before sending SIGKILL. Defaults to DefaultGracePeriod.
	GracePeriod time.Duration
}

// Process is a handle to a launched child whose output is being streamed.
// Exactly two flows of control exist per launch: the caller's goroutine and
// the reader goroutine; they share only the sink reference and the done
// channel.
type Process struct {
	ID string

	cmd    *exec.Cmd
	reader *outputReader
	ctx    context.Context
	grace  time.Duration

	// pty master, nil for the pipe variant. Retained for Resize only; the
	// reader owns it for reading and closes it.
	ptmx *os.File

	waitOnce sync.Once
	result   Result
	waitErr  error
	started  time.Time
}

// Launch spawns cmd.Args with stdout and stderr joined onto an anonymous
// pipe and starts a goroutine that streams the pipe's contents to cmd.Sink.
// When Launch returns, the child is running and capture is already in
// progress.
//
// Cancelling ctx terminates the child (SIGTERM, then SIGKILL after the grace
// period); Wait then reports the cancellation.
func Launch(ctx context.Context, cmd Command) (*Process, error) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "" {
		return nil, fmt.Errorf("%w: empty argument vector", ErrSpawnFailed)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: pipe: %v", ErrTransportUnavailable, err)
	}

	c := buildCmd(cmd)
	c.Stdout = w
	c.Stderr = w

	if err := c.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	// The child holds its own duplicate of the write end. The parent must
	// drop its copy now or the reader never observes EOF.
	w.Close()

	return startProcess(ctx, c, cmd, r, nil), nil
}

// buildCmd converts a Command into an exec.Cmd without starting it.
func buildCmd(cmd Command) *exec.Cmd {
	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	// exec.Cmd treats a nil Env as "inherit the parent's environment"; an
	// empty Command.Env means an empty child environment, so always assign
	// a non-nil slice.
	c.Env = append([]string{}, cmd.Env...)
	return c
}

// startProcess wires up the reader and the cancellation watcher for an
// already-started child. src is the transport end the reader will own; ptmx
// is non-nil for pty launches.
func startProcess(ctx context.Context, c *exec.Cmd, cmd Command, src, ptmx *os.File) *Process {
	grace := cmd.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	p := &Process{
		ID:      uuid.New().String(),
		cmd:     c,
		ctx:     ctx,
		grace:   grace,
		ptmx:    ptmx,
		started: time.Now(),
	}

	var tee *os.File
	if cmd.TeeStderr && ptmx != nil {
		tee = os.Stderr
	}
	p.reader = newOutputReader(src, cmd.Sink, tee)
	go p.reader.run(p.ID)

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				logger.Debug().Str("id", p.ID).Msg("context cancelled, terminating child")
				p.Terminate(p.grace)
			case <-p.reader.done:
			}
		}()
	}

	logger.Debug().
		Str("id", p.ID).
		Int("pid", c.Process.Pid).
		Str("path", cmd.Args[0]).
		Bool("pty", ptmx != nil).
		Msg("launched")
	return p
}

// Wait blocks until output capture has finished and the child has been
// reaped, then returns the child's status. The reader is joined before the
// child is reaped, so no captured output is still pending when Wait returns.
//
// Wait is idempotent: the first call computes the Result and every later
// call returns the same cached value.
//
// A non-zero child exit is not an error; the error return is reserved for
// wait machinery failures and for context cancellation.
func (p *Process) Wait() (Result, error) {
	p.waitOnce.Do(func() {
		<-p.reader.done

		err := p.cmd.Wait()
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				p.waitErr = fmt.Errorf("launcher: wait: %w", err)
				return
			}
		}

		p.result = newResult(p.cmd.ProcessState, time.Since(p.started), p.reader.err)

		if p.ctx != nil && p.ctx.Err() != nil && !p.result.Exited() {
			p.waitErr = fmt.Errorf("launcher: killed by context: %w", p.ctx.Err())
		}

		logger.Debug().
			Str("id", p.ID).
			Int("exit_code", p.result.ExitCode).
			Dur("duration", p.result.Duration).
			Msg("finished")
	})
	return p.result, p.waitErr
}
