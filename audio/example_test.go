// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"
	"io"

	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/internal/audiotest"
)

// Example_resampler demonstrates converting an asset to the stream rate.
func Example_resampler() {
	// One second of a 440Hz tone recorded at 22.05kHz
	source := audiotest.NewSineSource(22050, 1, 22050, 440.0)

	resampler := audio.NewResampler(source, 44100)

	fmt.Printf("Output sample rate: %d Hz\n", resampler.SampleRate())
	fmt.Printf("Expected frames: %d\n", resampler.Frames())

	buf := make([]float32, 4096)
	total := 0
	for {
		n, err := resampler.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	fmt.Printf("Total samples read: %d\n", total)
	// Output:
	// Output sample rate: 44100 Hz
	// Expected frames: 44100
	// Total samples read: 44100
}

// Example_channelMixer shows a mono asset being spread to a stereo stream.
func Example_channelMixer() {
	source := audiotest.NewConstantSource(44100, 1, 100, 0.5)

	stereo := audio.NewChannelMixer(source, 2)

	buf := make([]float32, 4)
	n, _ := stereo.ReadSamples(buf)

	fmt.Printf("Input channels: %d\n", source.Channels())
	fmt.Printf("Output channels: %d\n", stereo.Channels())
	fmt.Printf("Read %d samples: %v\n", n, buf[:n])
	// Output:
	// Input channels: 1
	// Output channels: 2
	// Read 4 samples: [0.5 0.5 0.5 0.5]
}

// Example_clip plays an in-memory clip slightly sharp and loops it.
func Example_clip() {
	clip := audio.Clip{PCM: []float32{0, 0.25, 0.5, 0.75}, Channels: 1}

	out := make([]float32, 6)
	next, done := clip.Render(out, 0, 1, true)

	fmt.Printf("Rendered: %v\n", out)
	fmt.Printf("Next position: %.0f, done: %v\n", next, done)
	// Output:
	// Rendered: [0 0.25 0.5 0.75 0 0.25]
	// Next position: 2, done: false
}
