// SPDX-License-Identifier: EPL-2.0

//go:build !unix

package input

import "go.uber.org/zap"

// Keyboard is unavailable on this platform; Start always fails.
type Keyboard struct {
	events chan Event
}

func NewKeyboard(_ int, _ *zap.Logger) *Keyboard {
	return &Keyboard{events: make(chan Event)}
}

func (k *Keyboard) Events() <-chan Event { return k.events }

func (k *Keyboard) Start() error { return ErrNotTerminal }

func (k *Keyboard) Stop() {}
