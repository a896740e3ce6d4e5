// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with github.com/jfreymuth/oggvorbis.
//
// Samples come out of the decoder already as interleaved float32, so the
// source hands the caller's buffer straight to the decoder.
package vorbis
