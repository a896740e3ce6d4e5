// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer converts interleaved audio from the source channel count to a
// fixed output channel count. Down-mixing averages, up-mixing duplicates.
type ChannelMixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewChannelMixer(src Source, channels int) *ChannelMixer {
	return &ChannelMixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

// NewMonoMixer averages every source channel into one.
func NewMonoMixer(src Source) *ChannelMixer {
	return NewChannelMixer(src, 1)
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.channels }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }
func (m *ChannelMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelMixer) Frames() int64 {
	if sized, ok := m.src.(Sized); ok {
		return sized.Frames()
	}
	return 0
}

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	in := m.src.Channels()
	out := m.channels
	if in == out {
		return m.src.ReadSamples(dst)
	}
	if len(dst)%out != 0 {
		return 0, ErrInvalidDstSize
	}

	maxFrames := len(dst) / out
	samplesNeeded := maxFrames * in

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:cap(m.tmp)]

	n, err := m.src.ReadSamples(m.tmp[:samplesNeeded])
	if n == 0 {
		return 0, err
	}
	frames := n / in

	switch {
	case out == 1:
		mixDown(dst, m.tmp, frames, in)
	case in == 1:
		for f := range frames {
			v := m.tmp[f]
			for c := range out {
				dst[f*out+c] = v
			}
		}
	case out > in:
		for f := range frames {
			for c := range out {
				dst[f*out+c] = m.tmp[f*in+c%in]
			}
		}
	default:
		// Fold source channel j onto output channel j % out
		for f := range frames {
			for c := range out {
				sum := float32(0)
				count := 0
				for j := c; j < in; j += out {
					sum += m.tmp[f*in+j]
					count++
				}
				dst[f*out+c] = sum / float32(count)
			}
		}
	}

	return frames * out, err
}

func mixDown(dst, src []float32, frames, channels int) {
	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (src[idx] + src[idx+1]) * 0.5
		}
	case 4:
		for f := range frames {
			idx := f << 2
			sum := src[idx] + src[idx+1] + src[idx+2] + src[idx+3]
			dst[f] = sum * 0.25
		}
	default:
		invChannels := float32(1.0) / float32(channels)
		for f := range frames {
			sum := float32(0)
			baseIdx := f * channels
			for c := range channels {
				sum += src[baseIdx+c]
			}
			dst[f] = sum * invChannels
		}
	}
}
