package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/neonvariant/sitestats/pkg/errors"
)

// Snapshot file names, one per provider.
const (
	DockerHubFile = "dockerhub-stats.json"
	GitHubFile    = "github-stats.json"
	AnalyticsFile = "google-analytics-stats.json"
)

// Store reads and writes snapshot documents in one data directory. Writes
// are atomic: the document lands in a temp file first and is renamed into
// place, so readers never observe a partial snapshot and a failed run never
// corrupts the previous one.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first
// write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute location of a snapshot file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads a snapshot document into v. A missing file is not an error; it
// reports found=false and leaves v untouched.
func (s *Store) Load(name string, v any) (found bool, err error) {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "read snapshot %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(errors.ErrCodeMalformedResponse, err, "decode snapshot %s", name)
	}
	return true, nil
}

// Write replaces a snapshot document atomically.
func (s *Store) Write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create data dir")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot %s", name)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write snapshot %s", name)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write snapshot %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write snapshot %s", name)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write snapshot %s", name)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "replace snapshot %s", name)
	}
	return nil
}
