// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/ik5/dmuffler/internal/soundbank"
)

const entriesQuery = `SELECT id, name, threshold_rpm, path FROM engine_sounds ORDER BY threshold_rpm`

// SQLite reads the engine_sounds table of a SQLite database opened
// read-only. Relative paths are taken from BaseDir.
type SQLite struct {
	Path    string
	BaseDir string
}

// DSN is the read-only connection string for path.
func (s SQLite) DSN() string {
	return "file:" + (&url.URL{Path: s.Path}).EscapedPath() + "?mode=ro"
}

func (s SQLite) Entries(ctx context.Context) ([]soundbank.Entry, error) {
	db, err := sql.Open("sqlite", s.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	rows, err := db.QueryContext(ctx, entriesQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	defer rows.Close()

	var entries []soundbank.Entry
	for rows.Next() {
		var (
			e    soundbank.Entry
			name sql.NullString
		)
		if err := rows.Scan(&e.ID, &name, &e.ThresholdRPM, &e.Path); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		e.Name = name.String
		e.Path = resolve(s.BaseDir, e.Path)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntries, s.Path)
	}

	return entries, nil
}
