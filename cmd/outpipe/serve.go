package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/outpipe/outpipe/internal/api"
	"github.com/outpipe/outpipe/internal/launcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve launch requests over a unix socket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("socket", defaultSocketPath(), "unix socket path")
	viper.BindPFlag("socket", serveCmd.Flags().Lookup("socket"))
}

func runServe(_ *cobra.Command, _ []string) error {
	socketPath := viper.GetString("socket")
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return err
	}

	server := api.NewServer(socketPath, launcher.DefaultRegistry, logger)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info().Stringer("signal", sig).Msg("shutting down")
	}

	launcher.DefaultRegistry.TerminateAll(0)
	server.Stop()
	return nil
}
