// Package cli holds the start-up steps shared by cmd/myfinance and
// cmd/myfinance-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"myfinance/internal/config"
	"myfinance/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the config and makes it the
// slog default. Output goes to out, or stderr when out is nil, so it does not
// interleave with console prompts.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stderr
	}
	logCfg := log.DefaultConfig()
	logCfg.Output = out
	if cfg != nil {
		logCfg.Level = log.ParseLevel(cfg.LogLevel)
		logCfg.Format = cfg.LogFormat
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads .env, then loads and validates the configuration.
func LoadConfig() (*config.Config, error) {
	LoadEnvFile()
	return config.Load()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
