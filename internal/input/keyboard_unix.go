// SPDX-License-Identifier: EPL-2.0

//go:build unix

package input

import (
	"errors"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const pollDelay = 5 * time.Millisecond

// Keyboard reads raw key presses from a terminal.
type Keyboard struct {
	fd       int
	events   chan Event
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	nonblock bool
	oldState *term.State
	logger   *zap.Logger
}

// NewKeyboard reads from the terminal behind fd, normally os.Stdin.Fd().
func NewKeyboard(fd int, logger *zap.Logger) *Keyboard {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Keyboard{
		fd:     fd,
		events: make(chan Event, 16),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Events delivers parsed key presses. It is never closed.
func (k *Keyboard) Events() <-chan Event {
	return k.events
}

// Start puts the terminal in raw non-blocking mode and starts reading.
func (k *Keyboard) Start() error {
	if !term.IsTerminal(k.fd) {
		close(k.done)
		return ErrNotTerminal
	}

	oldState, err := term.MakeRaw(k.fd)
	if err != nil {
		close(k.done)
		return err
	}
	k.oldState = oldState

	if err := syscall.SetNonblock(k.fd, true); err != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
		close(k.done)
		return err
	}
	k.nonblock = true

	go k.loop()

	return nil
}

func (k *Keyboard) loop() {
	defer close(k.done)

	buf := make([]byte, 16)
	var events []Event

	for {
		select {
		case <-k.stopCh:
			return
		default:
		}

		n, err := syscall.Read(k.fd, buf)
		if n > 0 {
			events = Parse(events[:0], buf[:n])
			for _, e := range events {
				select {
				case k.events <- e:
				default:
					k.logger.Debug("key event dropped", zap.Stringer("event", e))
				}
			}
		}
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || (n <= 0 && err == nil) {
			time.Sleep(pollDelay)
			continue
		}
		if err != nil {
			k.logger.Warn("keyboard read failed", zap.Error(err))
			return
		}
	}
}

// Stop ends reading and restores the terminal.
func (k *Keyboard) Stop() {
	k.stopped.Do(func() {
		close(k.stopCh)
	})
	<-k.done

	if k.nonblock {
		_ = syscall.SetNonblock(k.fd, false)
		k.nonblock = false
	}
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
}
