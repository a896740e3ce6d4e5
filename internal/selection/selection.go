// SPDX-License-Identifier: EPL-2.0

// Package selection maps RPM to the clip to play and its playback rate.
package selection

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ik5/dmuffler/internal/input"
	"github.com/ik5/dmuffler/internal/soundbank"
	"github.com/ik5/dmuffler/utils"
)

const (
	DefaultPitchMin = 0.98
	DefaultPitchMax = 1.05

	// Hard limits of the final playback rate, manual trim included.
	MinPitch = 0.5
	MaxPitch = 2.0

	trimStep = 0.1
)

var ErrInvalidPitchRange = errors.New("pitch range must satisfy 0.5 <= min <= max <= 2.0")

// Selection is what the renderer should play. A published Selection is never
// modified; a change produces a new value.
type Selection struct {
	Asset  *soundbank.Asset
	Pitch  float64
	Silent bool
	Muted  bool
	// Epoch changes when the clip must restart from its first frame.
	Epoch uint64
}

// Audible reports whether the selection produces sound.
func (s *Selection) Audible() bool {
	return s != nil && s.Asset != nil && !s.Silent && !s.Muted
}

// Config tunes the policy. Zero values select the defaults.
type Config struct {
	// RPM below SilenceFloor is silent. Zero disables the floor.
	SilenceFloor float64
	// No sample for longer than Staleness makes the signal stale. Zero
	// disables the check.
	Staleness time.Duration
	PitchMin  float64
	PitchMax  float64
	// Upper end of the last bucket for pitch mapping.
	MaxRPM float64
	// Deadband keeps a higher bucket while RPM is less than this far below
	// its threshold.
	Deadband float64
}

// Policy turns RPM into selections. It is owned by the control loop and is
// not safe for concurrent use.
type Policy struct {
	bank  *soundbank.Bank
	cfg   Config
	trim  float64
	muted bool
	epoch uint64
	seen  time.Time
}

func New(bank *soundbank.Bank, cfg Config) (*Policy, error) {
	if cfg.PitchMin == 0 {
		cfg.PitchMin = DefaultPitchMin
	}
	if cfg.PitchMax == 0 {
		cfg.PitchMax = DefaultPitchMax
	}
	if cfg.PitchMin < MinPitch || cfg.PitchMax > MaxPitch || cfg.PitchMin > cfg.PitchMax {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidPitchRange, cfg.PitchMin, cfg.PitchMax)
	}
	if cfg.Deadband < 0 {
		cfg.Deadband = 0
	}

	return &Policy{bank: bank, cfg: cfg, trim: 1}, nil
}

// Initial is the selection published before any RPM arrives: the lowest
// clip at its natural rate.
func (p *Policy) Initial() *Selection {
	return &Selection{Asset: p.bank.First(), Pitch: 1, Muted: p.muted, Epoch: p.epoch}
}

// Update returns the selection for rpm. When nothing observable differs from
// prev, prev itself is returned so callers can skip publishing.
func (p *Policy) Update(rpm float64, prev *Selection) *Selection {
	if math.IsNaN(rpm) || rpm < 0 {
		rpm = 0
	}

	silent := p.cfg.SilenceFloor > 0 && rpm < p.cfg.SilenceFloor

	var (
		asset *soundbank.Asset
		pitch float64
	)
	if silent {
		asset, pitch = p.bank.First(), 1.0
		if prev != nil && p.bank.Contains(prev.Asset) {
			asset, pitch = prev.Asset, prev.Pitch
		}
	} else {
		asset = p.choose(rpm, prev)
		pitch = p.pitch(rpm, asset)
	}

	if prev != nil && prev.Silent && !silent {
		p.epoch++
	}

	next := Selection{Asset: asset, Pitch: pitch, Silent: silent, Muted: p.muted, Epoch: p.epoch}
	if prev != nil && *prev == next {
		return prev
	}

	return &next
}

func (p *Policy) choose(rpm float64, prev *Selection) *soundbank.Asset {
	chosen := p.bank.Select(rpm)
	if prev == nil || prev.Asset == nil || chosen == prev.Asset || p.cfg.Deadband == 0 {
		return chosen
	}
	if !p.bank.Contains(prev.Asset) {
		return chosen
	}

	held := prev.Asset
	if chosen.ThresholdRPM < held.ThresholdRPM && rpm >= held.ThresholdRPM-p.cfg.Deadband {
		return held
	}

	return chosen
}

func (p *Policy) pitch(rpm float64, a *soundbank.Asset) float64 {
	lo := a.ThresholdRPM
	hi, ok := p.bank.Next(a)
	if !ok {
		hi = p.cfg.MaxRPM
	}

	base := 1.0
	if hi > lo {
		base = utils.MapRange(rpm, lo, hi, p.cfg.PitchMin, p.cfg.PitchMax)
	}

	return utils.Clamp(base*p.trim, MinPitch, MaxPitch)
}

// Apply folds a user event into the policy state and reports whether the
// next Update can differ because of it.
func (p *Policy) Apply(e input.Event) bool {
	switch e {
	case input.PitchUp:
		return p.setTrim(p.trim + trimStep)
	case input.PitchDown:
		return p.setTrim(p.trim - trimStep)
	case input.TogglePlayback:
		p.muted = !p.muted
		return true
	case input.Restart:
		p.epoch++
		return true
	}

	return false
}

func (p *Policy) setTrim(v float64) bool {
	v = utils.Clamp(math.Round(v*10)/10, MinPitch, MaxPitch)
	if v == p.trim {
		return false
	}
	p.trim = v

	return true
}

// Observe records that a sample arrived at t.
func (p *Policy) Observe(t time.Time) {
	if t.After(p.seen) {
		p.seen = t
	}
}

// Stale reports that no sample arrived within the staleness window. Before
// the first sample the signal counts as stale.
func (p *Policy) Stale(now time.Time) bool {
	if p.cfg.Staleness <= 0 {
		return false
	}

	return p.seen.IsZero() || now.Sub(p.seen) > p.cfg.Staleness
}

// Trim is the manual pitch multiplier.
func (p *Policy) Trim() float64 { return p.trim }

func (p *Policy) Muted() bool { return p.muted }
