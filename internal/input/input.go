// SPDX-License-Identifier: EPL-2.0

// Package input turns key presses into control events.
package input

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// Event is a user control request.
type Event int

const (
	None Event = iota
	PitchUp
	PitchDown
	TogglePlayback
	Restart
	Throttle
	Quit
)

func (e Event) String() string {
	switch e {
	case PitchUp:
		return "pitch-up"
	case PitchDown:
		return "pitch-down"
	case TogglePlayback:
		return "toggle-playback"
	case Restart:
		return "restart"
	case Throttle:
		return "throttle"
	case Quit:
		return "quit"
	}

	return "none"
}

var ErrNotTerminal = errors.New("input is not a terminal")

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
)

var (
	seqUp   = []byte{keyEsc, '[', 'A'}
	seqDown = []byte{keyEsc, '[', 'B'}
)

// Parse appends the events encoded in one chunk of raw terminal input to
// dst. Arrow keys arrive as escape sequences; a lone Esc quits.
func Parse(dst []Event, b []byte) []Event {
	for len(b) > 0 {
		switch {
		case bytes.HasPrefix(b, seqUp), bytes.HasPrefix(b, []byte{keyEsc, 'O', 'A'}):
			dst = append(dst, PitchUp)
			b = b[3:]
			continue
		case bytes.HasPrefix(b, seqDown), bytes.HasPrefix(b, []byte{keyEsc, 'O', 'B'}):
			dst = append(dst, PitchDown)
			b = b[3:]
			continue
		case b[0] == keyEsc && len(b) >= 3 && (b[1] == '[' || b[1] == 'O'):
			// Other cursor and function keys.
			b = b[3:]
			continue
		}

		switch b[0] {
		case ' ':
			dst = append(dst, TogglePlayback)
		case 'r', 'R':
			dst = append(dst, Restart)
		case 'g', 'G':
			dst = append(dst, Throttle)
		case '+', '=':
			dst = append(dst, PitchUp)
		case '-', '_':
			dst = append(dst, PitchDown)
		case 'q', 'Q', keyCtrlC, keyEsc:
			dst = append(dst, Quit)
		}
		b = b[1:]
	}

	return dst
}

// ReadEvents parses r until EOF or ctx is done, sending events to out. It is
// used for non-terminal input such as a pipe. Events are dropped when out is
// full.
func ReadEvents(ctx context.Context, r io.Reader, out chan<- Event) error {
	buf := make([]byte, 64)
	var events []Event

	for {
		n, err := r.Read(buf)
		if n > 0 {
			events = Parse(events[:0], buf[:n])
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
