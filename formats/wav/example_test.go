// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/dmuffler/formats/wav"
)

// Example_decoding demonstrates decoding a WAV file.
func Example_decoding() {
	samples := []int16{100, 200, 300, 400, 500, 600}
	wavData := new(bytes.Buffer)
	_ = wav.WriteWAV16(wavData, 16000, 2, samples)

	source, err := wav.Decoder{}.Decode(wavData)
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
		return
	}

	fmt.Printf("Sample rate: %d Hz\n", source.SampleRate())
	fmt.Printf("Channels: %d\n", source.Channels())

	buf := make([]float32, 10)
	n, err := source.ReadSamples(buf)
	if err != nil && err != io.EOF {
		fmt.Printf("Read error: %v\n", err)
		return
	}

	fmt.Printf("Read %d samples\n", n)
	// Output:
	// Sample rate: 16000 Hz
	// Channels: 2
	// Read 6 samples
}

// Example_encoding demonstrates writing a prepared asset.
func Example_encoding() {
	samples := []float32{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5}

	output := new(bytes.Buffer)
	if err := wav.WriteFloat(output, 8000, 1, samples); err != nil {
		fmt.Printf("Write error: %v\n", err)
		return
	}

	fmt.Printf("Wrote %d bytes\n", output.Len())
	// Output:
	// Wrote 60 bytes
}
