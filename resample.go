// SPDX-License-Identifier: EPL-2.0

package dmuffler

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ik5/dmuffler/audio"
)

// DecodePCM drains src into memory as interleaved float32 PCM at the given
// stream rate and channel count.
//
// This function creates a processing pipeline:
//  1. Resamples the source audio to sampleRate using cubic interpolation
//  2. Up or down mixes to the requested channel count
//  3. Reads all samples from the pipeline into one slice
//
// The slice is preallocated from the source length when the decoder knows it.
// src is not closed.
func DecodePCM(src audio.Source, sampleRate, channels int) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, audio.ErrInvalidRate
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	resampler := audio.NewResampler(src, sampleRate)
	mixer := audio.NewChannelMixer(resampler, channels)

	capacity := int(mixer.Frames()) * channels
	if capacity <= 0 {
		capacity = sampleRate * channels * 2 // assume ~2 seconds
	}
	pcm := make([]float32, 0, capacity)
	buf := make([]float32, 4096*channels)

	for {
		n, err := mixer.ReadSamples(buf)
		pcm = append(pcm, buf[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return pcm, nil
}

// DecodeFile opens path, picks a decoder from registry by extension and
// returns the file's PCM converted to the stream format, along with the
// file's native rate and channel count.
func DecodeFile(registry *audio.Registry, path string, sampleRate, channels int) (pcm []float32, nativeRate, nativeChannels int, err error) {
	dec, err := registry.ForPath(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w", err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	defer src.Close()

	pcm, err = DecodePCM(src, sampleRate, channels)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	return pcm, src.SampleRate(), src.Channels(), nil
}
