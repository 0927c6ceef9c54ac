package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/outpipe/outpipe/internal/launcher"
)

var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:          "outpipe",
	Short:        "Launch commands and stream their combined output as it is produced",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(runCmd, serveCmd)
}

// initConfig wires the environment into viper and installs the logger. A
// missing .env file is fine.
func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("OUTPIPE")
	viper.AutomaticEnv()
	viper.SetDefault("log_level", "info")

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log_level")))
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	launcher.SetLogger(logger)
}

func defaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "outpipe.sock")
	}
	return filepath.Join(home, ".outpipe", "outpipe.sock")
}
