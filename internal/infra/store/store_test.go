package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	s := NewFileStore(path)

	in := map[string][]string{
		"road trip": {"/m/01.mp3", "/m/02.mp3"},
		"focus":     {"/m/ambient.flac"},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	require.NoError(t, os.WriteFile(path, []byte("][nonsense"), 0644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStore_NullContentIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0644))

	out, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(map[string][]string{"a": {"/m/1.mp3"}}))
	require.NoError(t, s.Save(map[string][]string{"b": {"/m/2.mp3"}}))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"b": {"/m/2.mp3"}}, out)
}
