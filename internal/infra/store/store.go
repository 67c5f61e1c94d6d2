// Package store persists named playlists to a JSON file.
package store

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
)

// FileStore reads and writes the playlist-name mapping as pretty-printed
// JSON: {"name": ["/path/a.mp3", ...], ...}.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored mapping. A missing file yields an empty mapping.
func (s *FileStore) Load() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}

	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "malformed playlists file %s", s.path)
	}
	if m == nil {
		m = map[string][]string{}
	}
	return m, nil
}

// Save writes the mapping, replacing the previous contents.
func (s *FileStore) Save(m map[string][]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode playlists")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", s.path)
	}
	return nil
}
