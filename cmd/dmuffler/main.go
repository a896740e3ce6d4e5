// SPDX-License-Identifier: EPL-2.0

// Command dmuffler plays engine sound that follows the RPM read from a CAN
// bus. All settings come from DMUFFLER_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/config"
	"github.com/ik5/dmuffler/internal/input"
	"github.com/ik5/dmuffler/internal/logging"
	"github.com/ik5/dmuffler/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dmuffler:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(
		logging.WithLevel(cfg.LogLevel),
		logging.WithDevelopment(cfg.LogDevelopment),
		logging.WithFields(map[string]any{"service": "dmuffler"}),
	)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logging.Sync(logger)

	opts, err := supervisorOptions(cfg, logger)
	if err != nil {
		return err
	}

	kb := input.NewKeyboard(int(os.Stdin.Fd()), logger)
	switch err := kb.Start(); {
	case err == nil:
		defer kb.Stop()
		opts.Events = kb.Events()
		logger.Info("keyboard control enabled")
	case errors.Is(err, input.ErrNotTerminal):
		logger.Debug("stdin is not a terminal, keyboard control disabled")
	default:
		logger.Warn("keyboard control unavailable", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		zap.String("can_interface", cfg.CANInterface),
		zap.String("can_id", fmt.Sprintf("0x%X", cfg.CANID)),
		zap.Bool("test_mode", cfg.TestMode),
		zap.Bool("keyboard", cfg.Keyboard),
		zap.String("sink", cfg.Sink),
	)

	if err := supervisor.New(opts).Run(ctx); err != nil {
		logger.Error("stopped with error", zap.Error(err))
		return err
	}
	logger.Info("stopped")

	return nil
}
