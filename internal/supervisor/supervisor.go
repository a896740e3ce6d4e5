// SPDX-License-Identifier: EPL-2.0

// Package supervisor wires RPM input, clip selection and audio output
// together and owns their lifecycle.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/catalog"
	"github.com/ik5/dmuffler/internal/input"
	"github.com/ik5/dmuffler/internal/meter"
	"github.com/ik5/dmuffler/internal/output"
	"github.com/ik5/dmuffler/internal/render"
	"github.com/ik5/dmuffler/internal/rpm"
	"github.com/ik5/dmuffler/internal/selection"
	"github.com/ik5/dmuffler/internal/soundbank"
)

const (
	DefaultPollInterval    = 20 * time.Millisecond
	DefaultShutdownTimeout = time.Second
)

var (
	ErrAlreadyStarted = errors.New("supervisor already started")
	ErrNoCatalog      = errors.New("no sound catalog")
)

// Options wire the supervisor's collaborators.
type Options struct {
	Catalog catalog.Store
	Bank    soundbank.Options
	Policy  selection.Config
	// Render's format is taken from Bank.
	Render render.Options

	// OpenReader opens the live RPM source. An error wrapping
	// rpm.ErrBusUnavailable switches to Simulated once.
	OpenReader func(ctx context.Context) (rpm.Reader, error)
	Simulated  func() (rpm.Reader, error)

	// OpenStream opens the audio output. Nil or a failure leaves the
	// supervisor Degraded.
	OpenStream func(e *render.Engine) (output.Stream, error)

	Events <-chan input.Event
	// Pedal, when set, is pressed by input.Throttle events.
	Pedal *rpm.Pedal

	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	MeterInterval   time.Duration

	Logger *zap.Logger
}

// Supervisor runs one playback session at a time.
type Supervisor struct {
	opts   Options
	logger *zap.Logger
	state  atomic.Int32

	mutex    sync.Mutex
	engine   *render.Engine
	reader   rpm.Reader
	stream   output.Stream
	cancel   context.CancelFunc
	loopDone chan struct{}
	meterEnd chan struct{}

	quit     chan struct{}
	quitOnce *sync.Once
}

func New(opts Options) *Supervisor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Bank.Logger == nil {
		opts.Bank.Logger = opts.Logger
	}

	return &Supervisor{
		opts:     opts,
		logger:   opts.Logger,
		quit:     make(chan struct{}),
		quitOnce: &sync.Once{},
	}
}

func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old != st {
		s.logger.Info("state changed", zap.Stringer("from", old), zap.Stringer("to", st))
	}
}

// Engine returns the running session's render engine, or nil.
func (s *Supervisor) Engine() *render.Engine {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.engine
}

// Quit is closed when a Quit input event arrives.
func (s *Supervisor) Quit() <-chan struct{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.quit
}

// Start loads the sound bank, opens the RPM source and the audio output
// and starts the control loop. A bank that cannot be loaded is fatal and
// leaves the supervisor Stopped. A missing audio device is not: the
// supervisor runs Degraded.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.State() != Stopped {
		return ErrAlreadyStarted
	}
	s.setState(Starting)

	if err := s.start(ctx); err != nil {
		s.releaseLocked()
		s.setState(Stopped)
		return err
	}

	return nil
}

func (s *Supervisor) start(ctx context.Context) error {
	if s.opts.Catalog == nil {
		return ErrNoCatalog
	}

	entries, err := s.opts.Catalog.Entries(ctx)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	bank, err := soundbank.Load(ctx, entries, s.opts.Bank)
	if err != nil {
		return fmt.Errorf("sound bank: %w", err)
	}
	s.logger.Info("sound bank loaded", zap.Int("assets", bank.Len()),
		zap.Int("sample_rate", bank.SampleRate()), zap.Int("channels", bank.Channels()))

	policy, err := selection.New(bank, s.opts.Policy)
	if err != nil {
		return err
	}

	ropts := s.opts.Render
	ropts.SampleRate, ropts.Channels = bank.SampleRate(), bank.Channels()
	engine, err := render.New(ropts)
	if err != nil {
		return err
	}
	s.engine = engine

	reader, err := s.openReader(ctx)
	if err != nil {
		return err
	}
	s.reader = reader

	initial := policy.Initial()
	engine.Publish(initial)

	degraded := !s.openStream(engine)

	if s.quit == nil || isClosed(s.quit) {
		s.quit, s.quitOnce = make(chan struct{}), &sync.Once{}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.meterEnd = make(chan struct{})

	quit, once := s.quit, s.quitOnce
	c := &control{
		s: s, policy: policy, engine: engine, reader: reader, sel: initial,
		quit: func() { once.Do(func() { close(quit) }) },
	}
	go c.run(loopCtx, s.loopDone)
	go func(done chan struct{}) {
		defer close(done)
		meter.New(engine, s.opts.MeterInterval, s.logger).Run(loopCtx)
	}(s.meterEnd)

	if degraded {
		s.setState(Degraded)
	} else {
		s.setState(Running)
	}

	return nil
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (s *Supervisor) openReader(ctx context.Context) (rpm.Reader, error) {
	if s.opts.OpenReader != nil {
		r, err := s.opts.OpenReader(ctx)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, rpm.ErrBusUnavailable) || s.opts.Simulated == nil {
			return nil, fmt.Errorf("rpm reader: %w", err)
		}
		s.logger.Warn("live rpm unavailable, falling back to simulated rpm", zap.Error(err))
	}

	if s.opts.Simulated == nil {
		return nil, fmt.Errorf("rpm reader: %w", rpm.ErrBusUnavailable)
	}

	r, err := s.opts.Simulated()
	if err != nil {
		return nil, fmt.Errorf("simulated rpm: %w", err)
	}

	return r, nil
}

// openStream reports whether audio output is live.
func (s *Supervisor) openStream(engine *render.Engine) bool {
	if s.opts.OpenStream == nil {
		s.logger.Warn("audio output disabled, running degraded")
		return false
	}

	stream, err := s.opts.OpenStream(engine)
	if err != nil {
		s.logger.Warn("audio device unavailable, running degraded", zap.Error(err))
		return false
	}

	if err := stream.Start(); err != nil {
		s.logger.Warn("audio stream failed to start, running degraded", zap.Error(err))
		_ = stream.Close()
		return false
	}
	s.stream = stream

	return true
}

// Stop shuts the session down. Every wait (control loop, meter, stream,
// in-flight audio buffer, reader) is bounded by ShutdownTimeout; past it the
// remaining resources are released anyway.
func (s *Supervisor) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch s.State() {
	case Stopped, Stopping:
		return nil
	}
	s.setState(Stopping)

	if s.cancel != nil {
		s.cancel()
	}
	s.wait("control loop", s.loopDone)
	s.wait("meter", s.meterEnd)

	err := s.releaseLocked()
	s.setState(Stopped)

	return err
}

func (s *Supervisor) wait(what string, done chan struct{}) {
	if done == nil {
		return
	}

	t := time.NewTimer(s.opts.ShutdownTimeout)
	defer t.Stop()

	select {
	case <-done:
	case <-t.C:
		s.logger.Warn("shutdown timed out, releasing anyway", zap.String("waiting_for", what),
			zap.Duration("timeout", s.opts.ShutdownTimeout))
	}
}

func (s *Supervisor) releaseLocked() error {
	var errs []error

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if s.engine != nil {
		s.engine.Halt()
	}
	if s.stream != nil {
		if err := s.bounded("stream stop", s.stream.Stop); err != nil {
			errs = append(errs, fmt.Errorf("stop stream: %w", err))
		}
	}
	if s.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		if err := s.engine.WaitIdle(ctx); err != nil {
			s.logger.Warn("audio buffer still in flight, releasing anyway", zap.Error(err))
		}
		cancel()
	}
	if s.stream != nil {
		if err := s.bounded("stream close", s.stream.Close); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
		s.stream = nil
	}
	if s.reader != nil {
		if err := s.bounded("rpm reader close", s.reader.Close); err != nil {
			errs = append(errs, fmt.Errorf("close rpm reader: %w", err))
		}
		s.reader = nil
	}

	s.engine = nil
	s.loopDone, s.meterEnd = nil, nil

	return errors.Join(errs...)
}

// bounded runs release and waits for it at most ShutdownTimeout. A release
// that does not return in time is left running and reported as a warning.
func (s *Supervisor) bounded(what string, release func() error) error {
	done := make(chan error, 1)
	go func() { done <- release() }()

	t := time.NewTimer(s.opts.ShutdownTimeout)
	defer t.Stop()

	select {
	case err := <-done:
		return err
	case <-t.C:
		s.logger.Warn("shutdown timed out, releasing anyway", zap.String("waiting_for", what),
			zap.Duration("timeout", s.opts.ShutdownTimeout))
		return nil
	}
}

// Run starts the session and blocks until ctx is done or a Quit event
// arrives, then stops it.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.Quit():
		s.logger.Info("quit requested")
	}

	return s.Stop()
}
