package aiwallpaperlib

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

const manifestName = "queue.toml"

// QueuePath returns the fixed path for a display's queued wallpaper. At most
// one live entry per display; each generation cycle overwrites it.
func QueuePath(dir string, display int) string {
	return filepath.Join(dir, fmt.Sprintf("wallpaper_display_%d.png", display))
}

// WriteQueued writes a queue entry so that a concurrent reader sees either
// the old complete file or the new complete file, never a partial one: the
// bytes go to a temporary file in the same directory, get synced, and are
// renamed over the destination.
func WriteQueued(dir string, display int, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf(
			"Error creating queue directory [%s]: %w", dir, err)
	}

	out := QueuePath(dir, display)
	tmp := filepath.Join(dir, fmt.Sprintf(
		".wallpaper_display_%d.%s.tmp", display, uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", err
	}

	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	if err = os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return out, nil
}

// SaveCopy writes a timestamped copy into the save directory. Purely
// additive; the tool never reads these back, and the caller only logs
// failures.
func SaveCopy(data []byte, dir string, display int, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	name := fmt.Sprintf(
		"wallpaper_display_%d_%s.png", display, t.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return path, nil
}

// ManifestEntry records how one queue entry was generated, for human
// inspection only. The images never depend on it.
type ManifestEntry struct {
	Display int
	Prompt  string
	Seed    int64
	Width   int
	Height  int
	Created time.Time
}

type Manifest struct {
	Entries []ManifestEntry `toml:"entry"`
}

// ReadManifest returns an empty manifest when the file is missing or
// unparseable.
func ReadManifest(dir string) *Manifest {
	m := &Manifest{}
	_, err := toml.DecodeFile(filepath.Join(dir, manifestName), m)
	if err != nil {
		return &Manifest{}
	}
	return m
}

// UpdateManifest replaces the entry for this display and rewrites the
// manifest. Best effort by contract.
func UpdateManifest(dir string, entry ManifestEntry) error {
	m := ReadManifest(dir)

	kept := m.Entries[:0]
	for _, e := range m.Entries {
		if e.Display != entry.Display {
			kept = append(kept, e)
		}
	}
	m.Entries = append(kept, entry)

	f, err := os.Create(filepath.Join(dir, manifestName))
	if err != nil {
		return err
	}

	err = toml.NewEncoder(f).Encode(m)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
