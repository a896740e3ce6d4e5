// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files. Signed
// big-endian PCM at 8, 16, 24 and 32 bits is normalized to float32 in
// [-1.0, 1.0]. The frame count from the COMM chunk is exposed through Frames.
//
//	source, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrUnsupportedBitDepth) {
//	    // 12-bit and other odd sizes are rejected
//	}
//
// go-audio needs an io.ReadSeeker; other readers are buffered in memory first.
package aiff
