// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"fmt"
	"sync"
)

var errFormatLocked = errors.New("audio context already open with another format")

type contextFormat struct {
	sampleRate int
	channels   int
}

// deviceContext holds the single audio context a process may create. A
// later open with the same format resumes it instead of creating another.
type deviceContext[C any] struct {
	mutex  sync.Mutex
	format contextFormat
	ctx    C
	opened bool
	err    error
}

func (d *deviceContext[C]) acquire(format contextFormat, create func() (C, error), resume func(C) error) (C, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var zero C

	switch {
	case d.err != nil:
		return zero, d.err
	case !d.opened:
		ctx, err := create()
		if err != nil {
			// The platform refuses a second attempt, so the failure is final.
			d.err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
			return zero, d.err
		}
		d.ctx, d.format, d.opened = ctx, format, true
		return ctx, nil
	case d.format != format:
		return zero, fmt.Errorf("%w: %w: %d Hz/%d ch", ErrDeviceUnavailable, errFormatLocked,
			d.format.sampleRate, d.format.channels)
	}

	if err := resume(d.ctx); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	return d.ctx, nil
}
