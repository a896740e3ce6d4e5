// SPDX-License-Identifier: EPL-2.0

// Package dmuffler synthesizes engine sound in real time from a sensed RPM
// value.
//
// RPM is read from a CAN bus frame (or simulated), mapped to one of a set of
// pre-recorded engine clips plus a small pitch offset, and rendered
// continuously to an audio device. When the RPM crosses into another bucket
// the playing clip is swapped inside the next audio buffer without a click.
//
// # Layout
//
//   - audio, formats: decoding, resampling and in-memory playback primitives
//   - internal/rpm: CAN frame decoding and simulated RPM sources
//   - internal/soundbank: the validated, fully decoded clip catalog
//   - internal/selection: RPM to clip/pitch policy with hysteresis
//   - internal/render: the lock-free audio callback
//   - internal/output: device backends (oto, raw PCM pump)
//   - internal/supervisor: lifecycle of all of the above
//   - cmd/dmuffler: the daemon; cmd/dmuffler-prep: offline asset preparation
//
// # Asset Decoding
//
// The helpers in this package turn any supported file into PCM in the stream
// format, ready to be held in memory:
//
//	registry := formats.NewRegistry()
//	pcm, rate, ch, err := dmuffler.DecodeFile(registry, "audio/3000rpm.wav", 44100, 2)
//
// DecodePCM does the same for an already opened audio.Source.
package dmuffler
