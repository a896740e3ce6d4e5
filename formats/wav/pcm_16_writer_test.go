// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestWriteWAV16_Header(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rate       int
		channels   int
		samples    int
		blockAlign uint16
		byteRate   uint32
	}{
		{name: "mono 8k", rate: 8000, channels: 1, samples: 10, blockAlign: 2, byteRate: 16000},
		{name: "stereo 44.1k", rate: 44100, channels: 2, samples: 20, blockAlign: 4, byteRate: 176400},
		{name: "empty stereo", rate: 48000, channels: 2, samples: 0, blockAlign: 4, byteRate: 192000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)
			if err := WriteWAV16(buf, tt.rate, tt.channels, make([]int16, tt.samples)); err != nil {
				t.Fatalf("WriteWAV16() error = %v", err)
			}

			h := buf.Bytes()
			if len(h) != 44+tt.samples*2 {
				t.Fatalf("file size = %d, want %d", len(h), 44+tt.samples*2)
			}
			if string(h[0:4]) != "RIFF" || string(h[8:12]) != "WAVE" || string(h[36:40]) != "data" {
				t.Fatal("missing RIFF/WAVE/data markers")
			}
			if got := binary.LittleEndian.Uint32(h[4:8]); got != uint32(36+tt.samples*2) {
				t.Errorf("RIFF size = %d, want %d", got, 36+tt.samples*2)
			}
			if got := binary.LittleEndian.Uint16(h[22:24]); got != uint16(tt.channels) {
				t.Errorf("channels = %d, want %d", got, tt.channels)
			}
			if got := binary.LittleEndian.Uint32(h[28:32]); got != tt.byteRate {
				t.Errorf("byte rate = %d, want %d", got, tt.byteRate)
			}
			if got := binary.LittleEndian.Uint16(h[32:34]); got != tt.blockAlign {
				t.Errorf("block align = %d, want %d", got, tt.blockAlign)
			}
		})
	}
}

func TestWriteWAV16_InvalidChannels(t *testing.T) {
	t.Parallel()

	err := WriteWAV16(io.Discard, 8000, 0, []int16{1})
	if !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("WriteWAV16() error = %v, want ErrInvalidChannels", err)
	}
}

func TestWriteFloat_DecodesBack(t *testing.T) {
	t.Parallel()

	in := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	buf := new(bytes.Buffer)
	if err := WriteFloat(buf, 16000, 2, in); err != nil {
		t.Fatalf("WriteFloat() error = %v", err)
	}

	got, rate, channels, frames := readAll(t, bytes.NewReader(buf.Bytes()))
	if rate != 16000 || channels != 2 || frames != 3 {
		t.Fatalf("format = %d/%d/%d, want 16000/2/3", rate, channels, frames)
	}
	for i := range in {
		if d := got[i] - in[i]; d > 1e-3 || d < -1e-3 {
			t.Errorf("sample %d = %v, want %v", i, got[i], in[i])
		}
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrShortWrite }

func TestWriteWAV16_WriteError(t *testing.T) {
	t.Parallel()

	if err := WriteWAV16(failWriter{}, 8000, 1, []int16{1, 2}); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("WriteWAV16() error = %v, want io.ErrShortWrite", err)
	}
}

// BenchmarkWriteWAV16 benchmarks writing one second of stereo audio
func BenchmarkWriteWAV16(b *testing.B) {
	samples := make([]int16, 88200)

	b.ReportAllocs()

	for b.Loop() {
		_ = WriteWAV16(io.Discard, 44100, 2, samples)
	}
}
