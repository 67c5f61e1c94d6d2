// Package transcode works around container formats the audio backend cannot
// decode natively by converting them with an external tool and caching the
// converted output for the lifetime of the process.
package transcode

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	// ErrTranscoderNotFound means the external transcoder binary is not
	// installed. Callers surface it with actionable guidance.
	ErrTranscoderNotFound = errors.New("external transcoder not found")
)

// Transcoder converts a source file into a playable output file.
type Transcoder interface {
	// Convert writes a decoded copy of source to target. It returns an
	// error wrapping ErrTranscoderNotFound when the tool is missing.
	Convert(source, target string) error
}

// NativeLoader is the subset of the output device used to test whether a
// source file plays without conversion.
type NativeLoader interface {
	Load(path string) error
}

// Config holds cache configuration.
type Config struct {
	CacheDir   string   // Output directory for converted files
	Extensions []string // Lowercase extensions that may need conversion
}

// Cache resolves source files to playable paths. Converted outputs are
// keyed by a hash of the source path and reused across calls; registered
// files are deleted only at shutdown.
type Cache struct {
	mu         sync.Mutex
	transcoder Transcoder
	loader     NativeLoader
	dir        string
	eligible   map[string]bool
	entries    map[string]string // cache key -> produced output path
}

// NewCache creates a transcode cache over the given transcoder and device.
func NewCache(transcoder Transcoder, loader NativeLoader, cfg Config) *Cache {
	eligible := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		eligible[strings.ToLower(ext)] = true
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "mp3player_cache")
	}
	return &Cache{
		transcoder: transcoder,
		loader:     loader,
		dir:        dir,
		eligible:   eligible,
		entries:    make(map[string]string),
	}
}

// ResolvePlayable returns a path the device can load for source. Formats
// outside the fallback set pass through untouched. For fallback formats a
// real load attempt decides native support; only when that fails is the
// conversion path taken. On conversion failure the source path is returned
// together with the error so the caller can surface a load failure.
func (c *Cache) ResolvePlayable(source string) (string, error) {
	if !c.eligible[strings.ToLower(filepath.Ext(source))] {
		return source, nil
	}

	if err := c.loader.Load(source); err == nil {
		return source, nil
	}

	out, err := c.convert(source)
	if err != nil {
		return source, err
	}
	return out, nil
}

// Entries returns the number of registered cache entries.
func (c *Cache) Entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup deletes all produced cache files. Errors are logged and
// swallowed; cleanup never blocks shutdown.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, path := range c.entries {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zlog.Warn().Err(err).Msgf("transcode: failed to remove cache file: %s", path)
		}
		delete(c.entries, key)
	}
}

func (c *Cache) convert(source string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(source)
	out := filepath.Join(c.dir, fmt.Sprintf("%s_%s.wav", stem(source), key))

	// Reuse a prior conversion of the same source before paying for the
	// external process again.
	if path, ok := c.entries[key]; ok {
		return path, nil
	}
	if _, err := os.Stat(out); err == nil {
		c.entries[key] = out
		return out, nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create transcode cache dir")
	}
	if err := c.transcoder.Convert(source, out); err != nil {
		return "", err
	}

	zlog.Debug().Msgf("transcode: converted %s -> %s", source, out)
	c.entries[key] = out
	return out, nil
}

// cacheKey derives a deterministic key from the source path. The hash is
// over the path, not the file contents.
func cacheKey(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
