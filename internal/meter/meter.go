// SPDX-License-Identifier: EPL-2.0

// Package meter reports render engine counters and host load.
package meter

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/render"
)

const DefaultInterval = 10 * time.Second

// StatsSource is satisfied by *render.Engine.
type StatsSource interface {
	Stats() render.Stats
}

// Report is one meter reading.
type Report struct {
	render.Stats

	NewUnderruns uint64
	NewFaults    uint64
	CPUPercent   float64
	MemPercent   float64
}

// Meter turns cumulative engine counters into periodic log lines. The audio
// callback never logs; problems it counts surface here.
type Meter struct {
	src      StatsSource
	interval time.Duration
	logger   *zap.Logger
	last     render.Stats
	host     func() (cpuPct, memPct float64, err error)
}

func New(src StatsSource, interval time.Duration, logger *zap.Logger) *Meter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Meter{src: src, interval: interval, logger: logger, host: hostLoad}
}

func hostLoad() (float64, float64, error) {
	// A zero interval compares against the previous call and never blocks.
	cpus, err := cpu.Percent(0, false)
	if err != nil {
		return 0, 0, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}

	var c float64
	if len(cpus) > 0 {
		c = cpus[0]
	}

	return c, vm.UsedPercent, nil
}

// Check takes a reading and logs a warning for underruns or faults counted
// since the previous one.
func (m *Meter) Check() Report {
	s := m.src.Stats()
	r := Report{
		Stats:        s,
		NewUnderruns: s.Underruns - m.last.Underruns,
		NewFaults:    s.Faults - m.last.Faults,
	}
	m.last = s

	if c, mp, err := m.host(); err == nil {
		r.CPUPercent, r.MemPercent = c, mp
	} else {
		m.logger.Debug("host load unavailable", zap.Error(err))
	}

	if r.NewUnderruns > 0 {
		m.logger.Warn("audio underruns",
			zap.Uint64("new", r.NewUnderruns), zap.Uint64("total", s.Underruns),
			zap.Float64("cpu_percent", r.CPUPercent))
	}
	if r.NewFaults > 0 {
		m.logger.Warn("audio render faults, buffers replaced with silence",
			zap.Uint64("new", r.NewFaults), zap.Uint64("total", s.Faults))
	}

	return r
}

// Run checks every interval until ctx is done.
func (m *Meter) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r := m.Check()
			m.logger.Info("audio stats",
				zap.Uint64("buffers", r.Buffers),
				zap.Uint64("swaps", r.Swaps),
				zap.Uint64("underruns", r.Underruns),
				zap.Uint64("faults", r.Faults),
				zap.Float64("cpu_percent", r.CPUPercent),
				zap.Float64("mem_percent", r.MemPercent),
			)
		}
	}
}
