// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// Decoding is built on github.com/go-audio/wav, which walks the RIFF chunk
// list, so files carrying LIST/JUNK/fact chunks before the audio data decode
// fine. Integer PCM at 8, 16, 24 and 32 bits is supported, in any channel
// count and sample rate.
//
//	source, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrUnsupportedEncoding) {
//	    // float or compressed WAV
//	}
//
// The decoded source also reports its length in frames (audio.Sized), which
// the sound bank uses to size buffers before decoding.
//
// WriteWAV16 and WriteFloat write canonical 44-byte-header 16-bit PCM files.
// They are used by the asset preparation tool and by tests to build fixtures.
package wav
