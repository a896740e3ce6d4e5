// SPDX-License-Identifier: EPL-2.0

// Package output delivers the rendered stream to an audio device.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/render"
)

var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrUnknownSink       = errors.New("unknown audio sink")
)

const DefaultBufferFrames = 1024

// Stream is an open audio output pulling from a render engine.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Sink names an output backend.
type Sink string

const (
	SinkOto  Sink = "oto"
	SinkPump Sink = "pump"
	SinkNone Sink = "none"
)

// ParseSink accepts the sink names case-insensitively.
func ParseSink(s string) (Sink, error) {
	switch v := Sink(strings.ToLower(strings.TrimSpace(s))); v {
	case SinkOto, SinkPump, SinkNone:
		return v, nil
	case "":
		return SinkOto, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSink, s)
}

// Options select and configure the backend.
type Options struct {
	Sink         Sink
	BufferFrames int

	// Card selects the ALSA card for the oto sink by index or name. Empty
	// means auto-detect a DAC, else the default device.
	Card        string
	CardsPath   string
	DACKeywords []string

	// Writer receives the pump sink's PCM.
	Writer io.Writer

	Logger *zap.Logger
}

// Open creates the configured stream for e. Any failure to reach a device is
// reported as ErrDeviceUnavailable.
func Open(e *render.Engine, opts Options) (Stream, error) {
	if opts.BufferFrames <= 0 {
		opts.BufferFrames = DefaultBufferFrames
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	switch opts.Sink {
	case SinkOto, "":
		card, ok, err := SelectCard(opts.CardsPath, opts.Card, opts.DACKeywords)
		switch {
		case errors.Is(err, ErrNoSuchCard):
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		case err != nil:
			opts.Logger.Warn("sound card list unreadable, using the default device", zap.Error(err))
		case ok:
			if err := Route(card); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
			}
			opts.Logger.Info("audio device selected",
				zap.Int("card", card.Index), zap.String("id", card.ID), zap.String("name", card.Name))
		default:
			opts.Logger.Info("no DAC detected, using the default device")
		}

		return OpenOto(e, opts.BufferFrames)
	case SinkPump:
		if opts.Writer == nil {
			return nil, fmt.Errorf("%w: pump sink without a writer", ErrDeviceUnavailable)
		}
		return NewPump(e, opts.Writer, opts.BufferFrames, opts.Logger), nil
	case SinkNone:
		return nil, fmt.Errorf("%w: audio disabled", ErrDeviceUnavailable)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSink, opts.Sink)
}
