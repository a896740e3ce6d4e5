// SPDX-License-Identifier: EPL-2.0

package meter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ik5/dmuffler/internal/render"
)

type fakeStats struct {
	underruns atomic.Uint64
	faults    atomic.Uint64
}

func (f *fakeStats) Stats() render.Stats {
	return render.Stats{Buffers: 10, Underruns: f.underruns.Load(), Faults: f.faults.Load()}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	src := &fakeStats{}
	m := New(src, time.Second, zap.New(core))
	m.host = func() (float64, float64, error) { return 12.5, 40, nil }

	r := m.Check()
	if r.NewUnderruns != 0 || r.NewFaults != 0 || r.CPUPercent != 12.5 || r.MemPercent != 40 {
		t.Errorf("first Check() = %+v", r)
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 0 {
		t.Errorf("warnings on a clean engine: %v", logs.All())
	}

	src.underruns.Store(3)
	src.faults.Store(1)
	r = m.Check()
	if r.NewUnderruns != 3 || r.NewFaults != 1 {
		t.Errorf("second Check() = %+v, want 3 new underruns and 1 new fault", r)
	}
	if logs.FilterMessage("audio underruns").Len() != 1 {
		t.Error("underruns were not logged")
	}
	if logs.FilterMessageSnippet("render faults").Len() != 1 {
		t.Error("faults were not logged")
	}

	// Counters that did not move do not warn again.
	m.Check()
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 2 {
		t.Errorf("repeated warnings: %v", logs.All())
	}
}

func TestCheck_HostUnavailable(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	m := New(&fakeStats{}, 0, zap.New(core))
	m.host = func() (float64, float64, error) { return 0, 0, errors.New("no /proc") }

	if r := m.Check(); r.CPUPercent != 0 {
		t.Errorf("CPUPercent = %v", r.CPUPercent)
	}
	if logs.FilterMessage("host load unavailable").Len() != 1 {
		t.Error("host failure not logged at debug")
	}
	if m.interval != DefaultInterval {
		t.Errorf("interval = %v, want default", m.interval)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	m := New(&fakeStats{}, 5*time.Millisecond, zap.New(core))
	m.host = func() (float64, float64, error) { return 1, 2, nil }

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	m.Run(ctx)

	if logs.FilterMessage("audio stats").Len() == 0 {
		t.Error("Run() logged no stats")
	}
}
