// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	// DefaultWindow is how long a tick waits for the first frame.
	DefaultWindow = 50 * time.Millisecond

	drainWait = time.Millisecond
	maxDrain  = 256
)

// FrameReader is a source of raw CAN frames.
//
// ReadFrame waits at most timeout and returns ErrNoFrame when nothing
// arrived.
type FrameReader interface {
	ReadFrame(ctx context.Context, timeout time.Duration) (Frame, error)
	Close() error
}

// Bus reads live RPM from a FrameReader.
type Bus struct {
	frames    FrameReader
	dec       *Decoder
	window    time.Duration
	malformed atomic.Uint64
}

// NewBus returns a live reader. A window <= 0 selects DefaultWindow.
func NewBus(frames FrameReader, dec *Decoder, window time.Duration) *Bus {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Bus{frames: frames, dec: dec, window: window}
}

// Read waits up to the receive window for a frame, then drains frames that
// are already queued and returns the newest RPM among them.
//
// A malformed matching frame is returned as a *DecodeError unless a good
// sample was already found in the same tick.
func (b *Bus) Read(ctx context.Context) (Sample, bool, error) {
	var (
		latest Sample
		got    bool
	)

	wait := b.window
	for range maxDrain {
		f, err := b.frames.ReadFrame(ctx, wait)
		if errors.Is(err, ErrNoFrame) {
			return latest, got, nil
		}
		if err != nil {
			if got {
				return latest, true, nil
			}
			return Sample{}, false, fmt.Errorf("%w", err)
		}

		s, ok, err := b.dec.Decode(f)
		if err != nil {
			b.malformed.Add(1)
			if got {
				return latest, true, nil
			}
			return Sample{}, false, err
		}
		if ok {
			latest, got = s, true
			wait = drainWait
		}
	}

	return latest, got, nil
}

// Malformed counts matching frames that could not be decoded.
func (b *Bus) Malformed() uint64 {
	return b.malformed.Load()
}

func (b *Bus) Close() error {
	return b.frames.Close()
}
