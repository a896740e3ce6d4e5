// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/dmuffler/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// Output positions are derived from the integer frame counter, so the number
// of produced frames is exactly ceil(srcFrames * dstRate / srcRate) with no
// drift from accumulated floating point steps.
type Resampler struct {
	src      Source
	srcRate  int64
	dstRate  int64
	channels int

	// Window around the current source frame:
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2.
	// real[i] is false for frames padded past either end of the source.
	frames [4][]float32
	real   [4]bool
	cursor int64 // source frame index held in frames[1]
	out    int64 // output frames produced so far
	primed bool
	done   bool

	// Source is read in blocks and consumed one frame at a time.
	block    []float32
	blockLen int
	blockPos int
	srcEOF   bool

	filterState []float32
	filterReady bool
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	srcRate := src.SampleRate()

	// One-pole low-pass with its corner just under the destination Nyquist.
	useFilter := srcRate > dstRate
	var filterAlpha float32
	if useFilter {
		fc := 0.45 * float64(dstRate)
		filterAlpha = float32(1 - math.Exp(-2*math.Pi*fc/float64(srcRate)))
	}

	blockSize := max(src.BufSize(), 4096)
	blockSize -= blockSize % channels

	r := &Resampler{
		src:         src,
		srcRate:     int64(srcRate),
		dstRate:     int64(dstRate),
		channels:    channels,
		block:       make([]float32, blockSize),
		useFilter:   useFilter,
		filterAlpha: filterAlpha,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return len(r.block) }

// Frames reports the output length when the source length is known.
func (r *Resampler) Frames() int64 {
	sized, ok := r.src.(Sized)
	if !ok {
		return 0
	}
	n := sized.Frames()
	if n <= 0 {
		return 0
	}
	if r.srcRate == r.dstRate {
		return n
	}
	return (n*r.dstRate + r.srcRate - 1) / r.srcRate
}

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// fetch copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) fetch(dst []float32) (bool, error) {
	for r.blockPos >= r.blockLen {
		if r.srcEOF {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.block)
		r.blockLen = n - n%r.channels
		r.blockPos = 0

		switch {
		case errors.Is(err, io.EOF):
			r.srcEOF = true
		case err != nil:
			return false, fmt.Errorf("%w", err)
		case n == 0:
			return false, io.ErrNoProgress
		}
	}

	copy(dst, r.block[r.blockPos:r.blockPos+r.channels])
	r.blockPos += r.channels

	if r.useFilter {
		if !r.filterReady {
			// Seed with the first frame to avoid a warm-up transient
			copy(r.filterState, dst)
			r.filterReady = true
		}
		for c := range r.channels {
			// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
			dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() error {
	ok, err := r.fetch(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}

	copy(r.frames[0], r.frames[1])
	r.real[1] = true

	for i := 2; i < 4; i++ {
		ok, err := r.fetch(r.frames[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.frames[i], r.frames[i-1])
		}
		r.real[i] = ok
	}

	return nil
}

func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.real[0], r.real[1], r.real[2] = r.real[1], r.real[2], r.real[3]

	ok, err := r.fetch(r.frames[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.frames[3], r.frames[2])
	}
	r.real[3] = ok
	r.cursor++

	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if r.srcRate == r.dstRate {
		return r.src.ReadSamples(dst)
	}

	if r.done {
		return 0, io.EOF
	}

	if !r.primed {
		r.primed = true
		if err := r.prime(); err != nil {
			r.done = true
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		num := r.out * r.srcRate
		idx := num / r.dstRate

		for r.cursor < idx && r.real[1] {
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.real[1] {
			r.done = true
			if written == 0 {
				return 0, io.EOF
			}
			return written * r.channels, io.EOF
		}

		alpha := float32(num%r.dstRate) / float32(r.dstRate)
		base := written * r.channels

		for c := range r.channels {
			dst[base+c] = utils.CubicInterpolate(
				r.frames[0][c], r.frames[1][c], r.frames[2][c], r.frames[3][c], alpha,
			)
		}

		written++
		r.out++
	}

	return written * r.channels, nil
}
