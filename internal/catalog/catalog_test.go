// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ik5/dmuffler/internal/soundbank"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "3000rpm.wav", "800rpm.WAV", "1500rpm.mp3", "notes.txt", "rpm.wav", "6000rpm.flac")
	if err := os.Mkdir(filepath.Join(dir, "9000rpm.wav"), 0o700); err != nil {
		t.Fatal(err)
	}

	entries, err := Dir{Path: dir, Formats: []string{"wav", "mp3"}}.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}

	want := []float64{800, 1500, 3000}
	if len(entries) != len(want) {
		t.Fatalf("Entries() = %+v, want thresholds %v", entries, want)
	}
	for i, e := range entries {
		if e.ThresholdRPM != want[i] || e.ID != i+1 {
			t.Errorf("entries[%d] = %+v, want threshold %v id %d", i, e, want[i], i+1)
		}
		if filepath.Dir(e.Path) != dir {
			t.Errorf("entries[%d].Path = %s, not inside %s", i, e.Path, dir)
		}
	}

	all, err := Dir{Path: dir}.Entries(context.Background())
	if err != nil || len(all) != 4 {
		t.Errorf("Entries() without a format filter = %d, %v, want 4", len(all), err)
	}
}

func TestDir_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "readme.md")

	if _, err := (Dir{Path: dir}).Entries(context.Background()); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Entries() error = %v, want ErrNoEntries", err)
	}
	if _, err := (Dir{Path: filepath.Join(dir, "missing")}).Entries(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Entries() error = %v, want os.ErrNotExist", err)
	}
}

func TestManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sounds.toml")
	content := `
[[sound]]
id = 7
name = "idle"
threshold_rpm = 800
path = "idle.wav"

[[sound]]
name = "redline"
threshold_rpm = 6500.5
path = "/srv/sounds/redline.ogg"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := Manifest{Path: path}.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}

	want := []soundbank.Entry{
		{ID: 7, Name: "idle", ThresholdRPM: 800, Path: filepath.Join(dir, "idle.wav")},
		{ID: 2, Name: "redline", ThresholdRPM: 6500.5, Path: "/srv/sounds/redline.ogg"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Entries() = %+v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestManifest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "syntax", content: "[[sound]\n", want: ErrManifest},
		{name: "unknown key", content: "[[sound]]\npath = \"a.wav\"\nrpm = 5\n", want: ErrManifest},
		{name: "no path", content: "[[sound]]\nthreshold_rpm = 800\n", want: ErrManifest},
		{name: "empty", content: "", want: ErrNoEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "sounds.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			if _, err := (Manifest{Path: path}).Entries(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("Entries() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func createSoundsDB(t *testing.T, path string, rows [][]any) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE engine_sounds (
		id INTEGER PRIMARY KEY,
		name TEXT,
		threshold_rpm REAL NOT NULL,
		path TEXT NOT NULL
	)`); err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO engine_sounds (id, name, threshold_rpm, path) VALUES (?, ?, ?, ?)`, r...); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSQLite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vehicle.db")
	createSoundsDB(t, path, [][]any{
		{1, "high", 4500, "high.wav"},
		{2, nil, 800, "/abs/idle.wav"},
		{3, "mid", 2500, "mid.wav"},
	})

	entries, err := SQLite{Path: path, BaseDir: "/sounds"}.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}

	want := []soundbank.Entry{
		{ID: 2, ThresholdRPM: 800, Path: "/abs/idle.wav"},
		{ID: 3, Name: "mid", ThresholdRPM: 2500, Path: "/sounds/mid.wav"},
		{ID: 1, Name: "high", ThresholdRPM: 4500, Path: "/sounds/high.wav"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Entries() = %+v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestSQLite_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := (SQLite{Path: filepath.Join(dir, "absent.db")}).Entries(context.Background()); err == nil {
		t.Error("Entries() on a missing database succeeded")
	}

	empty := filepath.Join(dir, "empty.db")
	createSoundsDB(t, empty, nil)
	if _, err := (SQLite{Path: empty}).Entries(context.Background()); !errors.Is(err, ErrNoEntries) {
		t.Errorf("Entries() error = %v, want ErrNoEntries", err)
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	backup := Static{{ThresholdRPM: 0, Path: "idle.wav"}}

	broken := SQLite{Path: filepath.Join(t.TempDir(), "absent.db")}
	entries, err := Fallback(broken, backup, zap.New(core)).Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "idle.wav" {
		t.Errorf("Entries() = %+v, want the fallback catalog", entries)
	}
	if logs.FilterMessage("primary catalog unusable, using fallback").Len() != 1 {
		t.Errorf("fallback was not logged: %v", logs.All())
	}

	good := Static{{ThresholdRPM: 900, Path: "a.wav"}}
	if entries, _ := Fallback(good, backup, nil).Entries(context.Background()); entries[0].Path != "a.wav" {
		t.Errorf("Entries() = %+v, want the primary catalog", entries)
	}

	_, err = Fallback(Static{}, Static{}, nil).Entries(context.Background())
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Entries() error = %v, want ErrNoEntries", err)
	}
}
