// SPDX-License-Identifier: EPL-2.0

package soundbank

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler"
	"github.com/ik5/dmuffler/audio"
	"github.com/ik5/dmuffler/formats"
)

// Options control how catalog files are turned into clips.
type Options struct {
	SampleRate int
	Channels   int

	// Registry picks a decoder per file extension. Nil means every built in
	// format.
	Registry *audio.Registry

	// NormalizeRMS, when positive, scales every clip to this RMS level.
	NormalizeRMS float64

	Logger *zap.Logger
}

// Load validates the catalog and decodes every file into memory.
//
// All missing files are reported together in one *AssetError wrapping
// ErrAssetMissing before anything is decoded. Files that fail to decode are
// reported the same way, wrapping ErrAssetUndecodable.
func Load(ctx context.Context, entries []Entry, opts Options) (*Bank, error) {
	if opts.SampleRate <= 0 || opts.Channels < 1 || opts.Channels > 2 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidFormat, opts.SampleRate, opts.Channels)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	if opts.Registry == nil {
		opts.Registry = formats.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.ThresholdRPM, b.ThresholdRPM)
	})
	for i, e := range sorted {
		if err := checkThreshold(e.ThresholdRPM); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Path, err)
		}
		if i > 0 && sorted[i-1].ThresholdRPM == e.ThresholdRPM {
			return nil, fmt.Errorf("%w: %v (%s, %s)", ErrDuplicateThreshold, e.ThresholdRPM, sorted[i-1].Path, e.Path)
		}
	}

	if err := checkExist(sorted); err != nil {
		return nil, err
	}

	assets := make([]*Asset, 0, len(sorted))
	bad := &AssetError{Err: ErrAssetUndecodable}

	for _, e := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, err := loadAsset(e, opts)
		if err != nil {
			bad.Paths = append(bad.Paths, e.Path)
			bad.Causes = append(bad.Causes, err)
			continue
		}

		opts.Logger.Debug("asset loaded",
			zap.String("path", a.Path),
			zap.Float64("threshold_rpm", a.ThresholdRPM),
			zap.Int("native_rate", a.SampleRate),
			zap.Int("native_channels", a.Channels),
			zap.Int("frames", a.Clip.Frames()),
			zap.Float64("rms", a.Profile.RMS),
			zap.Float64("dominant_hz", a.Profile.DominantHz),
			zap.Float64("gain", a.Profile.Gain),
		)
		assets = append(assets, a)
	}

	if len(bad.Paths) > 0 {
		return nil, bad
	}

	return New(opts.SampleRate, opts.Channels, assets)
}

func checkExist(entries []Entry) error {
	missing := &AssetError{Err: ErrAssetMissing}

	for _, e := range entries {
		fi, err := os.Stat(e.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			missing.Paths = append(missing.Paths, e.Path)
		case err != nil:
			missing.Paths = append(missing.Paths, e.Path)
			missing.Causes = append(missing.Causes, err)
		case fi.IsDir():
			missing.Paths = append(missing.Paths, e.Path)
		}
	}

	if len(missing.Paths) > 0 {
		return missing
	}

	return nil
}

var errEmptyClip = errors.New("no audio frames")

func loadAsset(e Entry, opts Options) (*Asset, error) {
	pcm, rate, channels, err := dmuffler.DecodeFile(opts.Registry, e.Path, opts.SampleRate, opts.Channels)
	if err != nil {
		return nil, err
	}
	if len(pcm) < opts.Channels {
		return nil, fmt.Errorf("%s: %w", e.Path, errEmptyClip)
	}

	profile := Analyze(pcm, opts.Channels, opts.SampleRate)
	if opts.NormalizeRMS > 0 {
		profile = Normalize(pcm, profile, opts.NormalizeRMS)
	}

	return &Asset{
		ID:           e.ID,
		Name:         e.Name,
		ThresholdRPM: e.ThresholdRPM,
		Path:         e.Path,
		SampleRate:   rate,
		Channels:     channels,
		Clip:         audio.Clip{PCM: pcm, Channels: opts.Channels},
		Profile:      profile,
	}, nil
}
