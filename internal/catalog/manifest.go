// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ik5/dmuffler/internal/soundbank"
)

// Manifest reads a TOML file of sounds:
//
//	[[sound]]
//	id = 1
//	name = "idle"
//	threshold_rpm = 800
//	path = "idle.wav"
//
// Relative paths are taken from the manifest's directory.
type Manifest struct {
	Path string
}

type manifestFile struct {
	Sound []manifestSound `toml:"sound"`
}

type manifestSound struct {
	ID           int     `toml:"id"`
	Name         string  `toml:"name"`
	ThresholdRPM float64 `toml:"threshold_rpm"`
	Path         string  `toml:"path"`
}

func (m Manifest) Entries(ctx context.Context) ([]soundbank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file manifestFile
	md, err := toml.DecodeFile(m.Path, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrManifest, m.Path, strings.Join(keys, ", "))
	}
	if len(file.Sound) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntries, m.Path)
	}

	base := filepath.Dir(m.Path)
	entries := make([]soundbank.Entry, 0, len(file.Sound))
	for i, s := range file.Sound {
		if s.Path == "" {
			return nil, fmt.Errorf("%w: %s: sound %d has no path", ErrManifest, m.Path, i+1)
		}

		id := s.ID
		if id == 0 {
			id = i + 1
		}
		entries = append(entries, soundbank.Entry{
			ID:           id,
			Name:         s.Name,
			ThresholdRPM: s.ThresholdRPM,
			Path:         resolve(base, s.Path),
		})
	}

	return entries, nil
}
