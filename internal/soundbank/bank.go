// SPDX-License-Identifier: EPL-2.0

// Package soundbank holds the engine sound clips, fully decoded, keyed by the
// RPM at which each one starts.
package soundbank

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/ik5/dmuffler/audio"
)

// Entry is one catalog row: a sound file and the RPM its bucket starts at.
type Entry struct {
	ID           int
	Name         string
	ThresholdRPM float64
	Path         string
}

// Profile describes a decoded clip.
type Profile struct {
	Peak       float64
	RMS        float64
	DominantHz float64
	// Gain already applied to the clip by loudness normalisation.
	Gain float64
}

// Asset is an immutable, decoded clip in the stream format.
type Asset struct {
	ID           int
	Name         string
	ThresholdRPM float64
	Path         string

	// Native format of the file on disk.
	SampleRate int
	Channels   int

	Clip    audio.Clip
	Profile Profile
}

// Bank is an ordered set of assets, ascending by threshold.
type Bank struct {
	assets     []*Asset
	sampleRate int
	channels   int
}

// New builds a bank from already decoded assets. The assets are sorted by
// threshold; duplicate thresholds are rejected.
func New(sampleRate, channels int, assets []*Asset) (*Bank, error) {
	if sampleRate <= 0 || channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidFormat, sampleRate, channels)
	}
	if len(assets) == 0 {
		return nil, ErrEmptyCatalog
	}

	sorted := slices.Clone(assets)
	slices.SortStableFunc(sorted, func(a, b *Asset) int {
		return cmp.Compare(a.ThresholdRPM, b.ThresholdRPM)
	})

	for i, a := range sorted {
		if err := checkThreshold(a.ThresholdRPM); err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}
		if i > 0 && sorted[i-1].ThresholdRPM == a.ThresholdRPM {
			return nil, fmt.Errorf("%w: %v (%s, %s)", ErrDuplicateThreshold, a.ThresholdRPM, sorted[i-1].Path, a.Path)
		}
	}

	return &Bank{assets: sorted, sampleRate: sampleRate, channels: channels}, nil
}

func checkThreshold(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, v)
	}

	return nil
}

// Select returns the asset with the largest threshold not above rpm. Below
// every threshold the lowest asset is returned.
func (b *Bank) Select(rpm float64) *Asset {
	i := sort.Search(len(b.assets), func(i int) bool {
		return b.assets[i].ThresholdRPM > rpm
	})
	if i == 0 {
		return b.assets[0]
	}

	return b.assets[i-1]
}

// Next returns the threshold of the bucket following a.
func (b *Bank) Next(a *Asset) (float64, bool) {
	i := b.index(a)
	if i < 0 || i+1 >= len(b.assets) {
		return 0, false
	}

	return b.assets[i+1].ThresholdRPM, true
}

func (b *Bank) index(a *Asset) int {
	if a == nil {
		return -1
	}

	i := sort.Search(len(b.assets), func(i int) bool {
		return b.assets[i].ThresholdRPM >= a.ThresholdRPM
	})
	if i < len(b.assets) && b.assets[i] == a {
		return i
	}

	return -1
}

// Contains reports whether a belongs to this bank.
func (b *Bank) Contains(a *Asset) bool {
	return b.index(a) >= 0
}

// First returns the lowest asset.
func (b *Bank) First() *Asset {
	return b.assets[0]
}

// Assets returns the assets in ascending threshold order.
func (b *Bank) Assets() []*Asset {
	return slices.Clone(b.assets)
}

func (b *Bank) Len() int {
	return len(b.assets)
}

// SampleRate and Channels give the stream format every clip is stored in.
func (b *Bank) SampleRate() int {
	return b.sampleRate
}

func (b *Bank) Channels() int {
	return b.channels
}
