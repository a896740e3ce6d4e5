// SPDX-License-Identifier: EPL-2.0

package render

import (
	"encoding/binary"
	"math"

	"github.com/ik5/dmuffler/utils"
)

// Format is a byte encoding of interleaved PCM.
type Format int

const (
	Int16LE Format = iota
	Float32LE
)

// BytesPerSample of the encoding.
func (f Format) BytesPerSample() int {
	if f == Float32LE {
		return 4
	}

	return 2
}

// Reader exposes an Engine as an io.Reader of encoded PCM for pull-model
// audio devices. Every Read renders at most one engine buffer.
type Reader struct {
	engine  *Engine
	format  Format
	samples []float32
	pending []byte
	off     int
}

// NewReader renders frames per engine buffer.
func NewReader(e *Engine, format Format, frames int) *Reader {
	if frames <= 0 {
		frames = DefaultMaxFrames
	}
	n := frames * e.Channels()

	return &Reader{
		engine:  e,
		format:  format,
		samples: make([]float32, n),
		pending: make([]byte, n*format.BytesPerSample()),
		off:     n * format.BytesPerSample(),
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if r.off >= len(r.pending) {
		r.fill()
	}

	n := copy(p, r.pending[r.off:])
	r.off += n

	return n, nil
}

func (r *Reader) fill() {
	r.engine.Render(r.samples)

	switch r.format {
	case Float32LE:
		for i, s := range r.samples {
			binary.LittleEndian.PutUint32(r.pending[i*4:], math.Float32bits(s))
		}
	default:
		for i, s := range r.samples {
			binary.LittleEndian.PutUint16(r.pending[i*2:], uint16(utils.Float32ToInt16(s)))
		}
	}
	r.off = 0
}
