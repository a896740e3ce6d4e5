// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestRandomWalk(t *testing.T) {
	t.Parallel()

	w, err := NewRandomWalk(800, 1500, 42)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	prev := 800.0
	sawMax, sawTurn := false, false

	for i := range 500 {
		s, ok, err := w.Read(ctx)
		if !ok || err != nil {
			t.Fatalf("Read() #%d = %v, %v", i, ok, err)
		}
		if s.Value < 800 || s.Value > 1500 {
			t.Fatalf("Read() #%d = %v, outside [800, 1500]", i, s.Value)
		}
		if s.Source != Simulated {
			t.Fatalf("source = %v", s.Source)
		}

		step := math.Abs(s.Value - prev)
		atBound := s.Value == 800 || s.Value == 1500
		if step > walkMaxStep || (step < walkMinStep && !atBound) {
			t.Fatalf("step %v at read %d", step, i)
		}
		if s.Value == 1500 {
			sawMax = true
		}
		if sawMax && s.Value < 1500 {
			sawTurn = true
		}
		prev = s.Value
	}

	if !sawMax || !sawTurn {
		t.Errorf("walk never reached and left the maximum")
	}
}

func TestRandomWalk_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewRandomWalk(2000, 1000, 1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewRandomWalk() error = %v, want ErrInvalidRange", err)
	}

	w, _ := NewRandomWalk(0, 100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := w.AsTest().Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Read(cancelled) error = %v", err)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPedal(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1000, 0)}
	p, err := NewPedal(800, 6000, 2000, 1000, 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	p.now = clock.now

	ctx := context.Background()
	read := func() float64 {
		t.Helper()
		s, ok, err := p.Read(ctx)
		if !ok || err != nil {
			t.Fatalf("Read() = %v, %v", ok, err)
		}
		return s.Value
	}

	if got := read(); got != 800 {
		t.Fatalf("resting rpm = %v, want 800", got)
	}

	// Held for one second through repeated presses.
	for range 10 {
		p.Press()
		clock.advance(100 * time.Millisecond)
		read()
	}
	if got := read(); math.Abs(got-2800) > 1e-6 {
		t.Errorf("after 1s pressed rpm = %v, want 2800", got)
	}

	clock.advance(time.Second)
	if got := read(); math.Abs(got-1800) > 1e-6 {
		t.Errorf("after 1s released rpm = %v, want 1800", got)
	}
	if p.Pressed() {
		t.Error("Pressed() = true after the hold window")
	}

	clock.advance(10 * time.Second)
	if got := read(); got != 800 {
		t.Errorf("rpm = %v, want floor 800", got)
	}

	for range 100 {
		p.Press()
		clock.advance(100 * time.Millisecond)
		read()
	}
	if got := read(); got != 6000 {
		t.Errorf("rpm = %v, want ceiling 6000", got)
	}
}
