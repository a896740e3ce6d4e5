// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ik5/dmuffler/internal/soundbank"
)

var rpmFile = regexp.MustCompile(`(?i)^(\d+)rpm\.([a-z0-9]+)$`)

// Dir lists "<rpm>rpm.<ext>" files in a directory, for example 3000rpm.wav.
// Only extensions in Formats are picked up; other files are ignored.
type Dir struct {
	Path    string
	Formats []string
}

func (d Dir) Entries(ctx context.Context) ([]soundbank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	var entries []soundbank.Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}

		m := rpmFile.FindStringSubmatch(f.Name())
		if m == nil || !d.accepts(m[2]) {
			continue
		}
		rpm, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		entries = append(entries, soundbank.Entry{
			Name:         f.Name(),
			ThresholdRPM: float64(rpm),
			Path:         filepath.Join(d.Path, f.Name()),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntries, d.Path)
	}

	slices.SortStableFunc(entries, func(a, b soundbank.Entry) int {
		return cmp.Compare(a.ThresholdRPM, b.ThresholdRPM)
	})
	for i := range entries {
		entries[i].ID = i + 1
	}

	return entries, nil
}

func (d Dir) accepts(ext string) bool {
	if len(d.Formats) == 0 {
		return true
	}

	return slices.ContainsFunc(d.Formats, func(f string) bool {
		return strings.EqualFold(f, ext)
	})
}
