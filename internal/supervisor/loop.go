// SPDX-License-Identifier: EPL-2.0

package supervisor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/input"
	"github.com/ik5/dmuffler/internal/render"
	"github.com/ik5/dmuffler/internal/rpm"
	"github.com/ik5/dmuffler/internal/selection"
)

// control is the state of one control loop run.
type control struct {
	s      *Supervisor
	policy *selection.Policy
	engine *render.Engine
	reader rpm.Reader
	quit   func()

	rpm       float64
	sel       *selection.Selection
	stale     bool
	malformed uint64
}

// malformedCounter is implemented by readers that drop undecodable frames
// while still returning a good sample.
type malformedCounter interface {
	Malformed() uint64
}

func (c *control) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(c.s.opts.PollInterval)
	defer t.Stop()

	events := c.s.opts.Events

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.event(ev)
		case <-t.C:
			c.tick(ctx)
		}
	}
}

func (c *control) event(ev input.Event) {
	log := c.s.logger

	switch ev {
	case input.None:
		return
	case input.Quit:
		c.quit()
		return
	case input.Throttle:
		if c.s.opts.Pedal != nil {
			c.s.opts.Pedal.Press()
		}
		return
	}

	if c.policy.Apply(ev) {
		log.Info("control event", zap.Stringer("event", ev),
			zap.Float64("pitch_trim", c.policy.Trim()), zap.Bool("muted", c.policy.Muted()))
		c.publish(c.policy.Update(c.rpm, c.sel))
	}
}

func (c *control) tick(ctx context.Context) {
	log := c.s.logger

	sample, ok, err := c.reader.Read(ctx)

	var de *rpm.DecodeError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.As(err, &de):
		log.Warn("malformed rpm frame, keeping last rpm", zap.Error(err), zap.Float64("rpm", c.rpm))
	default:
		log.Warn("rpm read failed", zap.Error(err))
	}

	if mc, counts := c.reader.(malformedCounter); counts {
		if n := mc.Malformed(); n > c.malformed {
			log.Warn("malformed rpm frames dropped", zap.Uint64("new", n-c.malformed), zap.Uint64("total", n))
			c.malformed = n
		}
	}

	if ok {
		c.rpm = sample.Value
		c.policy.Observe(sample.Timestamp)
	}

	stale := c.policy.Stale(time.Now())
	if stale && !c.stale {
		log.Warn("rpm signal stale, holding current sound", zap.Float64("rpm", c.rpm))
	}
	if !stale && c.stale {
		log.Info("rpm signal recovered", zap.Float64("rpm", c.rpm))
	}
	c.stale = stale

	published := false
	if !stale {
		published = c.publish(c.policy.Update(c.rpm, c.sel))
	}

	if ce := log.Check(zap.DebugLevel, "control tick"); ce != nil {
		fields := []zap.Field{
			zap.Float64("rpm", c.rpm),
			zap.Bool("sample", ok),
			zap.Bool("stale", stale),
			zap.Bool("published", published),
			zap.Float64("pitch", c.sel.Pitch),
			zap.Bool("silent", c.sel.Silent),
			zap.Bool("muted", c.sel.Muted),
		}
		if ok {
			fields = append(fields, zap.Stringer("source", sample.Source))
		}
		if c.sel.Asset != nil {
			fields = append(fields, zap.Float64("bucket_rpm", c.sel.Asset.ThresholdRPM))
		}
		ce.Write(fields...)
	}
}

// publish hands next to the renderer when it differs from the current
// selection.
func (c *control) publish(next *selection.Selection) bool {
	if next == c.sel {
		return false
	}

	if next.Asset != c.sel.Asset {
		c.s.logger.Debug("sound changed",
			zap.Float64("bucket_rpm", next.Asset.ThresholdRPM), zap.String("path", next.Asset.Path))
	}
	c.sel = next
	c.engine.Publish(next)

	return true
}
