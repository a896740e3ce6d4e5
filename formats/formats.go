// SPDX-License-Identifier: EPL-2.0

// Package formats wires every supported file format into one decoder registry
// keyed by file extension.
package formats

import (
	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/formats/aiff"
	"github.com/ik5/dmuffler/formats/mp3"
	"github.com/ik5/dmuffler/formats/vorbis"
	"github.com/ik5/dmuffler/formats/wav"
)

// NewRegistry returns a registry that knows wav, mp3, ogg and aiff/aif.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}
