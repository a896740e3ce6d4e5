// SPDX-License-Identifier: EPL-2.0

package dmuffler

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/formats"
	"github.com/ik5/dmuffler/formats/wav"
	"github.com/ik5/dmuffler/internal/audiotest"
)

func TestDecodePCM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		srcRate    int
		srcCh      int
		frames     int
		dstRate    int
		dstCh      int
		wantLength int
	}{
		{name: "stereo 44.1k passthrough", srcRate: 44100, srcCh: 2, frames: 4410, dstRate: 44100, dstCh: 2, wantLength: 8820},
		{name: "mono 22.05k to stereo 44.1k", srcRate: 22050, srcCh: 1, frames: 2205, dstRate: 44100, dstCh: 2, wantLength: 8820},
		{name: "stereo 48k to mono 44.1k", srcRate: 48000, srcCh: 2, frames: 4800, dstRate: 44100, dstCh: 1, wantLength: 4410},
		{name: "empty", srcRate: 44100, srcCh: 2, frames: 0, dstRate: 44100, dstCh: 2, wantLength: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewConstantSource(tt.srcRate, tt.srcCh, tt.frames, 0.25)
			pcm, err := DecodePCM(src, tt.dstRate, tt.dstCh)
			if err != nil {
				t.Fatalf("DecodePCM() error = %v", err)
			}
			if len(pcm) != tt.wantLength {
				t.Errorf("DecodePCM() returned %d samples, want %d", len(pcm), tt.wantLength)
			}
			for i, s := range pcm {
				if math.Abs(float64(s-0.25)) > 1e-4 {
					t.Fatalf("pcm[%d] = %v, want 0.25", i, s)
				}
			}
		})
	}
}

func TestDecodePCM_InvalidArguments(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 1, 10)

	if _, err := DecodePCM(src, 0, 2); !errors.Is(err, audio.ErrInvalidRate) {
		t.Errorf("DecodePCM(rate 0) error = %v, want ErrInvalidRate", err)
	}
	if _, err := DecodePCM(src, 44100, 0); !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("DecodePCM(channels 0) error = %v, want ErrInvalidChannels", err)
	}
}

func TestDecodePCM_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("read failed")
	src := &audiotest.FailingSource{Rate: 44100, Chan: 2, Err: boom}

	if _, err := DecodePCM(src, 44100, 2); !errors.Is(err, boom) {
		t.Errorf("DecodePCM() error = %v, want %v", err, boom)
	}
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "2000rpm.wav")

	buf := new(bytes.Buffer)
	if err := wav.WriteWAV16(buf, 22050, 1, make([]int16, 2205)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	pcm, rate, channels, err := DecodeFile(formats.NewRegistry(), path, 44100, 2)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if rate != 22050 || channels != 1 {
		t.Errorf("native format = %d/%d, want 22050/1", rate, channels)
	}
	if len(pcm) != 8820 {
		t.Errorf("len(pcm) = %d, want 8820", len(pcm))
	}

	if _, _, _, err := DecodeFile(formats.NewRegistry(), filepath.Join(dir, "x.flac"), 44100, 2); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("DecodeFile(flac) error = %v, want ErrUnknownFormat", err)
	}
	if _, _, _, err := DecodeFile(formats.NewRegistry(), filepath.Join(dir, "missing.wav"), 44100, 2); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DecodeFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

// BenchmarkDecodePCM benchmarks preparing one second of a 48kHz stereo asset
func BenchmarkDecodePCM(b *testing.B) {
	src := audiotest.NewSineSource(48000, 2, 48000, 110.0)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		_, _ = DecodePCM(src, 44100, 2)
	}
}
