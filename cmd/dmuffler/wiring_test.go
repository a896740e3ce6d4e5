// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/catalog"
	"github.com/ik5/dmuffler/internal/config"
	"github.com/ik5/dmuffler/internal/output"
	"github.com/ik5/dmuffler/internal/rpm"
)

func TestCatalogStore(t *testing.T) {
	t.Parallel()

	exts := []string{"wav"}

	if _, ok := catalogStore(config.Config{AudioDir: "audio"}, exts, zap.NewNop()).(catalog.Dir); !ok {
		t.Error("audio dir only: want catalog.Dir")
	}
	for _, cfg := range []config.Config{
		{AudioDir: "audio", CatalogDB: "sounds.db"},
		{AudioDir: "audio", CatalogManifest: "sounds.toml"},
	} {
		if _, ok := catalogStore(cfg, exts, zap.NewNop()).(catalog.Dir); ok {
			t.Errorf("%+v: want a fallback store", cfg)
		}
	}
}

func TestSupervisorOptions_Modes(t *testing.T) {
	t.Parallel()

	base := config.Config{MinRPM: 1000, MaxRPM: 8000, PedalRise: 4000, PedalFall: 2500, Seed: 1, Sink: "none"}

	t.Run("live", func(t *testing.T) {
		t.Parallel()

		opts, err := supervisorOptions(base, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if opts.OpenReader == nil || opts.Simulated == nil {
			t.Fatal("live mode needs a bus reader and a simulated fallback")
		}
		r, err := opts.Simulated()
		if err != nil {
			t.Fatal(err)
		}
		s, _, _ := r.Read(context.Background())
		if s.Source != rpm.Simulated {
			t.Errorf("fallback source = %v, want %v", s.Source, rpm.Simulated)
		}
	})

	t.Run("test mode", func(t *testing.T) {
		t.Parallel()

		cfg := base
		cfg.TestMode = true
		opts, err := supervisorOptions(cfg, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if opts.OpenReader != nil {
			t.Error("test mode opened the bus")
		}
		r, _ := opts.Simulated()
		s, _, _ := r.Read(context.Background())
		if s.Source != rpm.Test {
			t.Errorf("source = %v, want %v", s.Source, rpm.Test)
		}
	})

	t.Run("keyboard", func(t *testing.T) {
		t.Parallel()

		cfg := base
		cfg.Keyboard = true
		opts, err := supervisorOptions(cfg, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if opts.Pedal == nil || opts.OpenReader != nil {
			t.Error("keyboard mode needs a pedal and no bus")
		}
	})

	t.Run("no sink", func(t *testing.T) {
		t.Parallel()

		opts, err := supervisorOptions(base, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := opts.OpenStream(nil); !errors.Is(err, output.ErrDeviceUnavailable) {
			t.Errorf("OpenStream() error = %v, want ErrDeviceUnavailable", err)
		}
	})
}
