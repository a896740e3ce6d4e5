// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package output

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/dmuffler/internal/render"
)

// otoStream plays the engine through the platform audio API. oto pulls
// from the render reader on its own goroutine.
type otoStream struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex
}

var otoContext deviceContext[*oto.Context]

// OpenOto opens the default device (see Route) for e's format. oto allows
// one context per process: it is created on the first call, suspended by
// Close and resumed by the next OpenOto with the same format.
func OpenOto(e *render.Engine, bufferFrames int) (Stream, error) {
	format := contextFormat{sampleRate: e.SampleRate(), channels: e.Channels()}

	ctx, err := otoContext.acquire(format, func() (*oto.Context, error) {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   format.sampleRate,
			ChannelCount: format.channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   time.Duration(bufferFrames) * time.Second / time.Duration(format.sampleRate),
		})
		if err != nil {
			return nil, err
		}
		<-ready
		return ctx, nil
	}, (*oto.Context).Resume)
	if err != nil {
		return nil, err
	}

	return &otoStream{
		ctx:    ctx,
		player: ctx.NewPlayer(render.NewReader(e, render.Float32LE, bufferFrames)),
	}, nil
}

func (s *otoStream) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.player == nil {
		return ErrDeviceUnavailable
	}
	if !s.started {
		s.player.Play()
		s.started = true
	}

	return nil
}

func (s *otoStream) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.started && s.player != nil {
		s.player.Pause()
		s.started = false
	}

	return nil
}

func (s *otoStream) Close() error {
	_ = s.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	if serr := s.ctx.Suspend(); err == nil {
		err = serr
	}

	return err
}
