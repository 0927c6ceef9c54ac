package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/outpipe/outpipe/internal/launcher"
)

var (
	runPty        bool
	runTee        bool
	runEnv        []string
	runInheritEnv bool
	runShell      string
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run a command and print its combined output as it arrives",
	Long: `Run spawns the given command with stdout and stderr joined onto a
single stream and prints each chunk as soon as the child produces it.

By default the child starts with an empty environment; pass --env for each
assignment it should see, or --inherit-env to start from the parent's
environment. With --shell, the argument is handed to the detected shell via
"-c" instead of being executed directly.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runPty, "pty", false, "allocate a pseudo-terminal (defaults to on when stdout is one)")
	runCmd.Flags().BoolVar(&runTee, "tee", false, "also mirror raw bytes to stderr (pty only)")
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "environment assignment KEY=value (repeatable)")
	runCmd.Flags().BoolVar(&runInheritEnv, "inherit-env", false, "start from the parent environment instead of an empty one")
	runCmd.Flags().StringVarP(&runShell, "shell", "c", "", "run this string with the detected shell's -c")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runShell != "" {
		if len(args) > 0 {
			return fmt.Errorf("--shell and a command are mutually exclusive")
		}
		shell, err := launcher.DetectShell()
		if err != nil {
			return err
		}
		args = []string{shell, "-c", runShell}
	}
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}

	env := runEnv
	if runInheritEnv {
		env = append(os.Environ(), runEnv...)
	}

	usePty := runPty
	if !cmd.Flags().Changed("pty") {
		usePty = term.IsTerminal(int(os.Stdout.Fd()))
	}

	c := launcher.Command{
		Args:      args,
		Env:       env,
		Sink:      func(text string) { fmt.Print(text) },
		TeeStderr: runTee,
	}

	launch := launcher.Launch
	if usePty {
		launch = launcher.LaunchPty
	}

	p, err := launch(ctx, c)
	if err != nil {
		return err
	}
	launcher.DefaultRegistry.Add(p)
	defer launcher.DefaultRegistry.Remove(p.ID)

	if usePty {
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if err := p.Resize(cols, rows); err != nil {
				logger.Debug().Err(err).Msg("resize failed")
			}
		}
	}

	res, err := p.Wait()
	if err != nil {
		return err
	}
	if !res.Success() {
		os.Exit(childExitCode(res))
	}
	return nil
}

// childExitCode maps a launch result onto this process's own exit code,
// using the shell convention of 128+signal for signaled children.
func childExitCode(res launcher.Result) int {
	if res.ExitCode >= 0 {
		return res.ExitCode
	}
	if res.Signaled() {
		return 128 + int(res.Status.Signal())
	}
	return 1
}
