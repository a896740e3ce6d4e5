// SPDX-License-Identifier: EPL-2.0

// Package catalog lists the sound files that make up a sound bank. Every
// store is read-only.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/ik5/dmuffler/internal/soundbank"
)

var (
	ErrNoEntries = errors.New("catalog has no entries")
	ErrManifest  = errors.New("invalid catalog manifest")
)

// Store yields catalog entries.
type Store interface {
	Entries(ctx context.Context) ([]soundbank.Entry, error)
}

// Static is an in-memory catalog.
type Static []soundbank.Entry

func (s Static) Entries(ctx context.Context) ([]soundbank.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, ErrNoEntries
	}

	return slices.Clone(s), nil
}

type fallback struct {
	primary   Store
	secondary Store
	logger    *zap.Logger
}

// Fallback reads primary and switches to secondary when primary fails or
// is empty.
func Fallback(primary, secondary Store, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallback) Entries(ctx context.Context) ([]soundbank.Entry, error) {
	entries, err := f.primary.Entries(ctx)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if err == nil {
		err = ErrNoEntries
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("primary catalog unusable, using fallback", zap.Error(err))

	entries, ferr := f.secondary.Entries(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("%w; fallback: %w", err, ferr)
	}

	return entries, nil
}

func resolve(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}
