// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so the source reports two channels
// even for mono files. When the input is seekable (an *os.File) the total
// length is known up front and exposed through Frames.
package mp3
