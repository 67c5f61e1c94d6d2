// Package library manages playlist contents: file and folder adds, and
// loading/saving named playlists through the playlist store.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/Ra5c0/MP3-Player/internal/domain/track"
)

// Errors
var (
	ErrUnknownPlaylist = errors.New("unknown playlist name")
)

// Store persists the mapping of playlist name to ordered file paths. The
// manager only reads and writes through it and does not own the format.
type Store interface {
	Load() (map[string][]string, error)
	Save(map[string][]string) error
}

// Player is the engine surface the manager feeds tracks into.
type Player interface {
	SetTracks(tracks []track.Track)
	AddTracks(tracks []track.Track) int
	Clear()
	Paths() []string
}

// Manager owns the named-playlist mapping for the session.
type Manager struct {
	mu     sync.Mutex
	store  Store
	player Player
	named  map[string][]string
}

// NewManager creates a manager and loads the stored playlists. A missing
// or unreadable store is treated as empty.
func NewManager(store Store, player Player) *Manager {
	named, err := store.Load()
	if err != nil {
		zlog.Warn().Err(err).Msg("library: cannot read playlist store, starting empty")
		named = make(map[string][]string)
	}
	return &Manager{store: store, player: player, named: named}
}

// Names returns the stored playlist names in sorted order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.named))
	for name := range m.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadNamed replaces the playlist with a stored one. Paths that no longer
// exist or have unsupported extensions are dropped. Loading halts any
// running playback.
func (m *Manager) LoadNamed(name string) (int, error) {
	m.mu.Lock()
	paths, ok := m.named[name]
	m.mu.Unlock()
	if !ok {
		return 0, errors.Wrapf(ErrUnknownPlaylist, "%q", name)
	}

	tracks := make([]track.Track, 0, len(paths))
	for _, p := range paths {
		if !track.Supported(p) {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			zlog.Debug().Msgf("library: skipping missing file: %s", p)
			continue
		}
		tracks = append(tracks, track.New(p))
	}

	m.player.SetTracks(tracks)
	return len(tracks), nil
}

// AddFiles appends supported files to the playlist without interrupting
// playback. Unsupported paths are skipped silently.
func (m *Manager) AddFiles(paths []string) int {
	tracks := make([]track.Track, 0, len(paths))
	for _, p := range paths {
		if track.Supported(p) {
			tracks = append(tracks, track.New(p))
		}
	}
	return m.player.AddTracks(tracks)
}

// AddFolder recursively scans root for supported audio files, appends them
// to the playlist, and saves a new named playlist after the folder. The
// name is uniquified against existing entries. Returns the saved name (""
// when the scan found nothing new) and the number of tracks added.
func (m *Manager) AddFolder(root string) (string, int, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && track.Supported(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return "", 0, errors.Wrapf(err, "failed to scan folder %s", root)
	}

	added := m.AddFiles(found)
	if added == 0 {
		return "", 0, nil
	}

	base := filepath.Base(root)
	if base == "" || base == string(filepath.Separator) || base == "." {
		base = "Playlist"
	}

	m.mu.Lock()
	name := m.uniqueNameLocked(base)
	m.named[name] = found
	m.mu.Unlock()

	if err := m.flush(); err != nil {
		zlog.Warn().Err(err).Msg("library: cannot write playlist store")
	}
	return name, added, nil
}

// SaveAs stores the current playlist contents under name, uniquified
// against existing entries. Returns the actual name used.
func (m *Manager) SaveAs(name string) (string, error) {
	paths := m.player.Paths()
	if len(paths) == 0 {
		return "", errors.New("playlist is empty, nothing to save")
	}

	m.mu.Lock()
	unique := m.uniqueNameLocked(name)
	m.named[unique] = paths
	m.mu.Unlock()

	if err := m.flush(); err != nil {
		return "", err
	}
	return unique, nil
}

// Clear halts playback and empties the playlist. Stored playlists are
// untouched.
func (m *Manager) Clear() {
	m.player.Clear()
}

func (m *Manager) flush() error {
	m.mu.Lock()
	snapshot := make(map[string][]string, len(m.named))
	for k, v := range m.named {
		snapshot[k] = v
	}
	m.mu.Unlock()

	return m.store.Save(snapshot)
}

// uniqueNameLocked appends " (2)", " (3)", ... until base is unused.
// Must be called with lock held.
func (m *Manager) uniqueNameLocked(base string) string {
	name := base
	for c := 2; ; c++ {
		if _, exists := m.named[name]; !exists {
			return name
		}
		name = fmt.Sprintf("%s (%d)", base, c)
	}
}
