// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/formats"
	"github.com/ik5/dmuffler/internal/catalog"
	"github.com/ik5/dmuffler/internal/config"
	"github.com/ik5/dmuffler/internal/output"
	"github.com/ik5/dmuffler/internal/render"
	"github.com/ik5/dmuffler/internal/rpm"
	"github.com/ik5/dmuffler/internal/selection"
	"github.com/ik5/dmuffler/internal/soundbank"
	"github.com/ik5/dmuffler/internal/supervisor"
)

func supervisorOptions(cfg config.Config, logger *zap.Logger) (supervisor.Options, error) {
	registry := formats.NewRegistry()

	opts := supervisor.Options{
		Catalog: catalogStore(cfg, registry.Formats(), logger),
		Bank: soundbank.Options{
			SampleRate:   cfg.SampleRate,
			Channels:     cfg.Channels,
			Registry:     registry,
			NormalizeRMS: cfg.NormalizeRMS,
			Logger:       logger,
		},
		Policy: selection.Config{
			SilenceFloor: cfg.SilenceFloor,
			Staleness:    cfg.Staleness,
			PitchMin:     cfg.PitchMin,
			PitchMax:     cfg.PitchMax,
			MaxRPM:       cfg.MaxRPM,
			Deadband:     cfg.Deadband,
		},
		Render: render.Options{
			HoldAtEnd: !cfg.Loop,
			Declick:   cfg.Declick,
			MaxFrames: max(render.DefaultMaxFrames, 2*cfg.BufferFrames),
		},
		OpenStream:      openStream(cfg, logger),
		PollInterval:    cfg.PollInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MeterInterval:   cfg.MeterInterval,
		Logger:          logger,
	}

	switch {
	case cfg.Keyboard:
		pedal, err := rpm.NewPedal(cfg.MinRPM, cfg.MaxRPM, cfg.PedalRise, cfg.PedalFall, 0)
		if err != nil {
			return opts, err
		}
		opts.Pedal = pedal
		opts.Simulated = func() (rpm.Reader, error) { return pedal, nil }
	case cfg.TestMode:
		opts.Simulated = func() (rpm.Reader, error) {
			w, err := rpm.NewRandomWalk(cfg.MinRPM, cfg.MaxRPM, cfg.Seed)
			if err != nil {
				return nil, err
			}
			return w.AsTest(), nil
		}
	default:
		opts.OpenReader = openBus(cfg, logger)
		opts.Simulated = func() (rpm.Reader, error) {
			return rpm.NewRandomWalk(cfg.MinRPM, cfg.MaxRPM, cfg.Seed)
		}
	}

	return opts, nil
}

// catalogStore prefers a database, then a manifest, falling back to the
// audio directory when either yields nothing.
func catalogStore(cfg config.Config, extensions []string, logger *zap.Logger) catalog.Store {
	dir := catalog.Dir{Path: cfg.AudioDir, Formats: extensions}

	switch {
	case cfg.CatalogDB != "":
		return catalog.Fallback(catalog.SQLite{Path: cfg.CatalogDB, BaseDir: cfg.AudioDir}, dir, logger)
	case cfg.CatalogManifest != "":
		return catalog.Fallback(catalog.Manifest{Path: cfg.CatalogManifest}, dir, logger)
	}

	return dir
}

func openBus(cfg config.Config, logger *zap.Logger) func(ctx context.Context) (rpm.Reader, error) {
	return func(ctx context.Context) (rpm.Reader, error) {
		order, err := rpm.ParseByteOrder(cfg.ByteOrder)
		if err != nil {
			return nil, err
		}

		dec, err := rpm.NewDecoder(rpm.DecoderConfig{
			TargetID:    cfg.CANID,
			Offset:      cfg.ByteOffset,
			Width:       cfg.ByteWidth,
			Order:       order,
			Scale:       cfg.Scale,
			ValueOffset: cfg.ValueOffset,
		})
		if err != nil {
			return nil, err
		}

		if cfg.SetupLink {
			if err := rpm.LinkUp(ctx, cfg.CANInterface, cfg.Bitrate); err != nil {
				return nil, err
			}
		}

		conn, err := rpm.DialSocketCAN(ctx, cfg.CANInterface)
		if err != nil {
			return nil, err
		}

		logger.Info("can bus open",
			zap.String("interface", cfg.CANInterface),
			zap.String("can_id", fmt.Sprintf("0x%X", cfg.CANID)),
			zap.Bool("extended", dec.Extended()),
			zap.Duration("window", cfg.ReceiveWindow))

		return rpm.NewBus(conn, dec, cfg.ReceiveWindow), nil
	}
}

func openStream(cfg config.Config, logger *zap.Logger) func(e *render.Engine) (output.Stream, error) {
	return func(e *render.Engine) (output.Stream, error) {
		sink, err := output.ParseSink(cfg.Sink)
		if err != nil {
			return nil, err
		}

		return output.Open(e, output.Options{
			Sink:         sink,
			BufferFrames: cfg.BufferFrames,
			Card:         cfg.Card,
			Writer:       os.Stdout,
			Logger:       logger,
		})
	}
}
