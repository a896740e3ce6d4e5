// SPDX-License-Identifier: EPL-2.0

// Package render produces the continuous audio stream from the currently
// published selection.
//
// The control side publishes selections with Publish. The audio side calls
// Render once per device buffer. The two share nothing but one atomic
// pointer, so neither ever waits for the other.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/internal/selection"
	"github.com/ik5/dmuffler/utils"
)

const (
	DefaultDeclick   = 10 * time.Millisecond
	DefaultMaxFrames = 4096

	idlePoll = time.Millisecond
)

var ErrInvalidFormat = errors.New("render format must have a positive rate and channel count")

// Options configure an Engine.
type Options struct {
	SampleRate int
	Channels   int
	// HoldAtEnd plays each clip once and then stays silent until the next
	// restart. By default clips loop.
	HoldAtEnd bool
	// Declick is the fade applied when a clip is cut. Zero selects
	// DefaultDeclick; a negative value disables fading.
	Declick time.Duration
	// MaxFrames bounds the fade scratch buffer.
	MaxFrames int
}

// Stats are cumulative engine counters.
type Stats struct {
	Buffers   uint64
	Underruns uint64
	Faults    uint64
	Swaps     uint64
}

// Engine renders the published selection. Render must be called from one
// goroutine at a time; every other method is safe from any goroutine.
type Engine struct {
	channels   int
	sampleRate int
	loop       bool
	declick    int

	current atomic.Pointer[selection.Selection]
	halted  atomic.Bool
	busy    atomic.Int32

	buffers   atomic.Uint64
	underruns atomic.Uint64
	faults    atomic.Uint64
	swaps     atomic.Uint64

	// Owned by the render goroutine.
	active  *selection.Selection
	pos     float64
	ended   bool
	fadeIn  int
	out     fadeOut
	scratch []float32
}

// fadeOut is the tail of a clip being cut, mixed over the head of the next
// buffer.
type fadeOut struct {
	clip audio.Clip
	pos  float64
	step float64
	on   bool
}

func New(opts Options) (*Engine, error) {
	if opts.SampleRate <= 0 || opts.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidFormat, opts.SampleRate, opts.Channels)
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}

	declick := 0
	switch {
	case opts.Declick == 0:
		declick = int(DefaultDeclick.Seconds() * float64(opts.SampleRate))
	case opts.Declick > 0:
		declick = int(opts.Declick.Seconds() * float64(opts.SampleRate))
	}
	declick = min(declick, opts.MaxFrames)

	return &Engine{
		channels:   opts.Channels,
		sampleRate: opts.SampleRate,
		loop:       !opts.HoldAtEnd,
		declick:    declick,
		scratch:    make([]float32, opts.MaxFrames*opts.Channels),
	}, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) Channels() int   { return e.channels }

// Publish makes sel the selection rendered from the next buffer on. Nil
// renders silence.
func (e *Engine) Publish(sel *selection.Selection) {
	e.current.Store(sel)
}

// Current returns the last published selection.
func (e *Engine) Current() *selection.Selection {
	return e.current.Load()
}

// Halt silences every following buffer.
func (e *Engine) Halt() {
	e.halted.Store(true)
}

// Halted reports whether Halt was called.
func (e *Engine) Halted() bool {
	return e.halted.Load()
}

// WaitIdle blocks until no Render call is in flight.
func (e *Engine) WaitIdle(ctx context.Context) error {
	t := time.NewTicker(idlePoll)
	defer t.Stop()

	for e.busy.Load() != 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	return nil
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Buffers:   e.buffers.Load(),
		Underruns: e.underruns.Load(),
		Faults:    e.faults.Load(),
		Swaps:     e.swaps.Load(),
	}
}

// Render fills all of dst with interleaved samples and returns len(dst). A
// trailing partial frame is zeroed. Render never blocks and never allocates.
func (e *Engine) Render(dst []float32) (n int) {
	e.busy.Add(1)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			clear(dst)
			e.faults.Add(1)
			e.active, e.out.on, e.fadeIn = nil, false, 0
		}

		frames := len(dst) / e.channels
		if time.Since(start) > time.Duration(frames)*time.Second/time.Duration(e.sampleRate) {
			e.underruns.Add(1)
		}
		e.buffers.Add(1)
		e.busy.Add(-1)
		n = len(dst)
	}()

	body := dst[:len(dst)/e.channels*e.channels]
	clear(dst[len(body):])

	if e.halted.Load() {
		clear(body)
		return len(dst)
	}

	e.switchTo(e.current.Load())
	e.renderActive(body)
	e.mixFadeOut(body)

	return len(dst)
}

func (e *Engine) playable(sel *selection.Selection) bool {
	return sel.Audible() && sel.Asset.Clip.Channels == e.channels && sel.Asset.Clip.Frames() > 0
}

// switchTo adopts sel when it differs from the selection of the previous
// buffer. A new asset or epoch restarts playback at frame 0.
func (e *Engine) switchTo(sel *selection.Selection) {
	prev := e.active
	if sel == prev {
		return
	}
	e.active = sel

	wasPlaying := e.playable(prev) && !e.ended
	restart := prev == nil || sel == nil || sel.Asset != prev.Asset || sel.Epoch != prev.Epoch

	switch {
	case restart:
		if wasPlaying && e.declick > 0 {
			e.out = fadeOut{clip: prev.Asset.Clip, pos: e.pos, step: prev.Pitch, on: true}
		}
		e.pos, e.ended, e.fadeIn = 0, false, 0
		e.swaps.Add(1)
	case wasPlaying && !e.playable(sel):
		if e.declick > 0 {
			e.out = fadeOut{clip: prev.Asset.Clip, pos: e.pos, step: prev.Pitch, on: true}
		}
	case !e.playable(prev) && e.playable(sel):
		// Resuming mid-clip.
		e.fadeIn = e.declick
	}
}

func (e *Engine) renderActive(dst []float32) {
	sel := e.active
	if !e.playable(sel) || e.ended {
		clear(dst)
		return
	}

	next, done := sel.Asset.Clip.Render(dst, e.pos, sel.Pitch, e.loop)
	e.pos, e.ended = next, done

	if e.fadeIn > 0 {
		frames := len(dst) / e.channels
		n := min(e.fadeIn, frames)
		for i := range n {
			g := utils.Smoothstep(float32(i+1) / float32(n))
			for c := range e.channels {
				dst[i*e.channels+c] *= g
			}
		}
		e.fadeIn = 0
	}
}

// mixFadeOut adds the declick tail of a cut clip over the head of dst. The
// tail never outlives the current buffer.
func (e *Engine) mixFadeOut(dst []float32) {
	if !e.out.on {
		return
	}
	e.out.on = false

	frames := min(e.declick, len(dst)/e.channels)
	if frames == 0 {
		return
	}

	tail := e.scratch[:frames*e.channels]
	e.out.clip.Render(tail, e.out.pos, e.out.step, e.loop)

	for i := range frames {
		g := utils.Smoothstep(1 - float32(i+1)/float32(frames))
		for c := range e.channels {
			j := i*e.channels + c
			dst[j] = float32(utils.Clamp(float64(dst[j]+tail[j]*g), -1, 1))
		}
	}
}
