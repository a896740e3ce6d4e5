// SPDX-License-Identifier: EPL-2.0

// Package rpm turns raw sensor input into engine RPM samples.
//
// Live samples come from a CAN bus frame carrying the RPM as an unsigned
// integer field. Simulated samples come from a bounded random walk or from a
// keyboard driven gas pedal.
package rpm

import (
	"context"
	"time"
)

// Kind tells where a sample came from.
type Kind int

const (
	Live Kind = iota
	Simulated
	Test
)

func (k Kind) String() string {
	switch k {
	case Live:
		return "live"
	case Simulated:
		return "simulated"
	case Test:
		return "test"
	}

	return "unknown"
}

// Sample is one RPM reading. Value is never negative.
type Sample struct {
	Value     float64
	Timestamp time.Time
	Source    Kind
}

// Reader yields RPM samples, one per call.
//
// Read returns ok == false when no new sample is available this tick; the
// caller should keep its previous RPM.
type Reader interface {
	Read(ctx context.Context) (s Sample, ok bool, err error)
	Close() error
}
