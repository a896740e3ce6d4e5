// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"

	"github.com/ik5/dmuffler/utils"
)

// Clip is interleaved PCM held fully in memory, ready for real-time playback.
// A Clip is never mutated after it is built, so it can be read from the audio
// callback without locking.
type Clip struct {
	PCM      []float32
	Channels int
}

// Frames is the clip length in frames.
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.PCM) / c.Channels
}

// Render writes len(dst)/Channels frames starting at frame position pos,
// advancing step source frames per output frame. A step other than 1 is
// varispeed playback: pitch and tempo change together.
//
// Fractional positions are cubic interpolated. At the clip end the position
// wraps when loop is set; otherwise the rest of dst is zeroed and done is
// reported. Render does not allocate.
func (c Clip) Render(dst []float32, pos, step float64, loop bool) (next float64, done bool) {
	ch := c.Channels
	frames := c.Frames()
	if frames == 0 {
		clear(dst)
		return 0, true
	}
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = 1
	}
	if pos < 0 || math.IsNaN(pos) || math.IsInf(pos, 0) {
		pos = 0
	}

	end := float64(frames)
	n := len(dst) / ch

	for f := range n {
		if pos >= end {
			if !loop {
				clear(dst[f*ch:])
				return end, true
			}
			pos = math.Mod(pos, end)
		}

		i := int(pos)
		frac := float32(pos - float64(i))
		out := dst[f*ch : f*ch+ch]

		if frac == 0 {
			copy(out, c.PCM[i*ch:i*ch+ch])
		} else {
			i0 := wrapIndex(i-1, frames, loop)
			i2 := wrapIndex(i+1, frames, loop)
			i3 := wrapIndex(i+2, frames, loop)
			for k := range ch {
				out[k] = utils.CubicInterpolate(
					c.PCM[i0*ch+k], c.PCM[i*ch+k], c.PCM[i2*ch+k], c.PCM[i3*ch+k], frac,
				)
			}
		}

		pos += step
	}

	// Partial trailing frame, if any
	clear(dst[n*ch:])

	return pos, false
}

func wrapIndex(i, frames int, loop bool) int {
	if loop {
		i %= frames
		if i < 0 {
			i += frames
		}
		return i
	}
	return min(max(i, 0), frames-1)
}
