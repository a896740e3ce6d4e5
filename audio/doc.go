// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level audio primitives the engine sound
// pipeline is built from.
//
//   - Source interface for decoded audio input
//   - Registry mapping file extensions to decoders
//   - Resampler for sample rate conversion
//   - ChannelMixer for up/down mixing to the stream channel count
//   - Clip for allocation-free varispeed playback from memory
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders and processors implement Source so they can be chained. Sources
// that know their length also implement Sized, which lets callers size the
// destination buffer once.
//
// # Asset Preparation
//
// Assets are decoded once, converted to the output stream format and kept in
// memory:
//
//	src, _ := registry.ForPath("audio/3000rpm.wav") // pick decoder
//	resampled := audio.NewResampler(decoded, 44100)
//	stereo := audio.NewChannelMixer(resampled, 2)
//
// # Playback
//
// Clip.Render reads from memory at an arbitrary rate using Catmull-Rom cubic
// interpolation. It wraps at the clip end when looping, pads silence when
// not, and never allocates, so it is safe to call from an audio callback.
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0], interleaved by channel.
//
// # Error Handling
//
// ReadSamples returns io.EOF when no more data is available. Samples returned
// together with io.EOF are valid and must be consumed.
package audio
