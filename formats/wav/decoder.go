// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/utils"
)

// pcmReader is the part of gowav.Decoder the source reads from, so tests can
// feed it directly.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type wavSource struct {
	dec        pcmReader
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	remaining  int64 // samples left in the declared data chunk
	intBuf     *goaudio.IntBuffer
	eof        bool
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return nil }
func (s *wavSource) Frames() int64   { return s.frames }
func (s *wavSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof || s.remaining <= 0 {
		s.eof = true
		return 0, io.EOF
	}
	if int64(len(dst)) > s.remaining {
		dst = dst[:s.remaining]
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data: make([]int, len(dst)),
			Format: &goaudio.Format{
				NumChannels: s.channels,
				SampleRate:  s.sampleRate,
			},
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w", err)
	}
	if n == 0 {
		s.eof = true
		return 0, io.EOF
	}
	n = min(n, len(dst))
	s.remaining -= int64(n)

	// 8-bit WAV is unsigned, everything wider is signed
	if s.bitDepth == 8 {
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]-128) / 128.0
		}
	} else {
		for i := range n {
			dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
		}
	}

	if n < len(dst) || s.remaining == 0 {
		s.eof = true
		return n, io.EOF
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio/wav walks RIFF chunks and needs to seek
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	size, sized := dataSize(rs)

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	channels := int(dec.NumChans)
	bytesPerFrame := int64(dec.BitDepth/8) * int64(channels)
	if !sized {
		size = dec.PCMLen()
	}
	frames := min(size, dec.PCMLen()) / bytesPerFrame

	return &wavSource{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   int(dec.BitDepth),
		frames:     frames,
		remaining:  frames * int64(channels),
	}, nil
}

// dataSize returns the size the "data" chunk header declares. The riff
// parser rounds odd chunk sizes up over the pad byte, which is not audio.
// rs is left where it was.
func dataSize(rs io.ReadSeeker) (int64, bool) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	defer rs.Seek(start, io.SeekStart)

	p := riff.New(rs)
	if err := p.ParseHeaders(); err != nil {
		return 0, false
	}

	for {
		id, size, err := p.IDnSize()
		if err != nil {
			return 0, false
		}
		if id == riff.DataFormatID {
			return int64(size), true
		}
		if _, err := rs.Seek(int64(size)+int64(size&1), io.SeekCurrent); err != nil {
			return 0, false
		}
	}
}

const wavFormatPCM = 1
