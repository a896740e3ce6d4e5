// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

const (
	walkMinStep = 20
	walkMaxStep = 100
)

// RandomWalk wanders between a minimum and a maximum RPM, moving 20 to 100
// RPM per read and turning around at either bound. It starts at the minimum,
// climbing.
type RandomWalk struct {
	min, max float64
	rpm      float64
	dir      float64
	kind     Kind
	rng      *rand.Rand
	now      func() time.Time
}

// NewRandomWalk returns a simulated reader seeded with seed.
func NewRandomWalk(minRPM, maxRPM float64, seed uint64) (*RandomWalk, error) {
	if minRPM < 0 || minRPM >= maxRPM {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, minRPM, maxRPM)
	}

	return &RandomWalk{
		min:  minRPM,
		max:  maxRPM,
		rpm:  minRPM,
		dir:  1,
		kind: Simulated,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		now:  time.Now,
	}, nil
}

// AsTest marks the samples as coming from a test run.
func (w *RandomWalk) AsTest() *RandomWalk {
	w.kind = Test
	return w
}

func (w *RandomWalk) Read(ctx context.Context) (Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, false, err
	}

	step := float64(walkMinStep + w.rng.IntN(walkMaxStep-walkMinStep+1))
	w.rpm += w.dir * step

	switch {
	case w.rpm >= w.max:
		w.rpm, w.dir = w.max, -1
	case w.rpm <= w.min:
		w.rpm, w.dir = w.min, 1
	}

	return Sample{Value: w.rpm, Timestamp: w.now(), Source: w.kind}, true, nil
}

func (w *RandomWalk) Close() error { return nil }

// DefaultHold is how long one key press keeps the pedal down. Terminal
// auto-repeat re-presses well within it.
const DefaultHold = 150 * time.Millisecond

// Pedal is a simulated throttle. While pressed the RPM climbs at Rise RPM/s
// toward the maximum; once released it falls at Fall RPM/s toward the
// minimum.
type Pedal struct {
	min, max   float64
	rise, fall float64
	hold       time.Duration

	rpm       float64
	last      time.Time
	pressedAt atomic.Int64
	now       func() time.Time
}

// NewPedal returns a pedal resting at minRPM.
func NewPedal(minRPM, maxRPM, rise, fall float64, hold time.Duration) (*Pedal, error) {
	if minRPM < 0 || minRPM >= maxRPM {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, minRPM, maxRPM)
	}
	if hold <= 0 {
		hold = DefaultHold
	}

	p := &Pedal{min: minRPM, max: maxRPM, rise: rise, fall: fall, hold: hold, rpm: minRPM, now: time.Now}
	return p, nil
}

// Press holds the pedal down for the hold window.
func (p *Pedal) Press() {
	p.pressedAt.Store(p.now().UnixNano())
}

// Pressed reports whether the pedal is currently held.
func (p *Pedal) Pressed() bool {
	return p.pressedAt.Load() != 0 && p.now().UnixNano()-p.pressedAt.Load() < int64(p.hold)
}

func (p *Pedal) Read(ctx context.Context) (Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, false, err
	}

	now := p.now()
	if !p.last.IsZero() {
		dt := now.Sub(p.last).Seconds()
		if p.Pressed() {
			p.rpm = min(p.max, p.rpm+p.rise*dt)
		} else {
			p.rpm = max(p.min, p.rpm-p.fall*dt)
		}
	}
	p.last = now

	return Sample{Value: p.rpm, Timestamp: now, Source: Simulated}, true, nil
}

func (p *Pedal) Close() error { return nil }
