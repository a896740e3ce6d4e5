// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/render"
)

// Pump writes signed 16-bit little-endian PCM to a writer at real-time
// cadence, one buffer per period. Piping it into aplay gives a device
// without cgo.
type Pump struct {
	reader *render.Reader
	w      io.Writer
	buf    []byte
	period time.Duration
	logger *zap.Logger
	// stopTimeout bounds Stop's wait for a writer that does not return.
	stopTimeout time.Duration

	mutex  sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
	err    error
}

func NewPump(e *render.Engine, w io.Writer, bufferFrames int, logger *zap.Logger) *Pump {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pump{
		reader: render.NewReader(e, render.Int16LE, bufferFrames),
		w:      w,
		buf:    make([]byte, bufferFrames*e.Channels()*render.Int16LE.BytesPerSample()),
		period: time.Duration(bufferFrames) * time.Second / time.Duration(e.SampleRate()),
		logger: logger,

		stopTimeout: DefaultPumpStopTimeout,
	}
}

func (p *Pump) Start() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopCh != nil {
		return nil
	}
	if p.err != nil {
		return p.err
	}

	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stopCh, p.done)

	return nil
}

func (p *Pump) loop(stopCh, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(p.period)
	defer t.Stop()

	for {
		if _, err := io.ReadFull(p.reader, p.buf); err != nil {
			p.fail(err)
			return
		}
		if _, err := p.w.Write(p.buf); err != nil {
			p.fail(err)
			return
		}

		select {
		case <-stopCh:
			return
		case <-t.C:
		}
	}
}

func (p *Pump) fail(err error) {
	p.logger.Error("audio pump stopped", zap.Error(err))

	p.mutex.Lock()
	p.err = err
	p.mutex.Unlock()
}

// Err returns the write error that stopped the pump, if any.
func (p *Pump) Err() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.err
}

func (p *Pump) Stop() error {
	p.mutex.Lock()
	stopCh, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mutex.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)

	t := time.NewTimer(p.stopTimeout)
	defer t.Stop()

	select {
	case <-done:
		return nil
	case <-t.C:
		// The goroutine is abandoned in Write; it exits once Write returns.
		p.logger.Warn("audio pump writer blocked, abandoning it", zap.Duration("timeout", p.stopTimeout))
		return ErrPumpStalled
	}
}

const DefaultPumpStopTimeout = time.Second

var (
	ErrPumpStalled = errors.New("audio pump writer did not return")
	errPumpClosed  = errors.New("audio pump closed")
)

// Close stops the pump. The writer is left open.
func (p *Pump) Close() error {
	err := p.Stop()

	p.mutex.Lock()
	if p.err == nil {
		p.err = errPumpClosed
	}
	p.mutex.Unlock()

	return err
}
