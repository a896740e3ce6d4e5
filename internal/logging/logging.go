// SPDX-License-Identifier: EPL-2.0

// Package logging builds the process logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option adjusts the zap configuration before the logger is built.
type Option func(*zap.Config)

// WithLevel sets the minimum level by name. Unknown names mean info.
func WithLevel(level string) Option {
	return func(cfg *zap.Config) {
		lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
}

// WithDevelopment switches to the console encoder with stack traces on
// warnings.
func WithDevelopment(dev bool) Option {
	return func(cfg *zap.Config) {
		if !dev {
			return
		}
		level, fields, outputs := cfg.Level, cfg.InitialFields, cfg.OutputPaths
		*cfg = zap.NewDevelopmentConfig()
		cfg.Level, cfg.InitialFields, cfg.OutputPaths = level, fields, outputs
	}
}

// WithFields attaches fields to every log line.
func WithFields(fields map[string]any) Option {
	return func(cfg *zap.Config) {
		if cfg.InitialFields == nil {
			cfg.InitialFields = map[string]any{}
		}
		for k, v := range fields {
			if k == "" {
				continue
			}
			cfg.InitialFields[k] = v
		}
	}
}

// WithOutput replaces the output paths ("stderr" by default). Standard
// output is usually taken by raw PCM, so logs stay off it.
func WithOutput(paths ...string) Option {
	return func(cfg *zap.Config) {
		if len(paths) > 0 {
			cfg.OutputPaths = paths
		}
	}
}

// New builds a production logger with the options applied in order.
func New(opts ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.Build()
}

// Sync flushes logger, ignoring the errors terminals and pipes return for
// fsync.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	if err := logger.Sync(); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "inappropriate ioctl for device") ||
			strings.Contains(msg, "bad file descriptor") ||
			strings.Contains(msg, "invalid argument") {
			return nil
		}
		return err
	}

	return nil
}
