// Package playlist provides the ordered playlist entity.
package playlist

import (
	"sort"
	"time"

	"github.com/Ra5c0/MP3-Player/internal/domain/track"
)

// Playlist is an ordered sequence of tracks. Order is meaningful and kept
// natural-sorted after every mutation.
type Playlist struct {
	tracks []track.Track
}

// New creates an empty playlist.
func New() *Playlist {
	return &Playlist{tracks: make([]track.Track, 0)}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return len(p.tracks) == 0
}

// At returns the track at index i.
func (p *Playlist) At(i int) track.Track {
	return p.tracks[i]
}

// InRange reports whether i is a valid track index.
func (p *Playlist) InRange(i int) bool {
	return i >= 0 && i < len(p.tracks)
}

// Tracks returns a copy of the track sequence.
func (p *Playlist) Tracks() []track.Track {
	out := make([]track.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Paths returns the track paths in playlist order.
func (p *Playlist) Paths() []string {
	paths := make([]string, len(p.tracks))
	for i, t := range p.tracks {
		paths[i] = t.Path
	}
	return paths
}

// Add appends tracks, skipping paths already present, then restores natural
// order. It returns the number of tracks actually added.
func (p *Playlist) Add(tracks ...track.Track) int {
	seen := make(map[string]bool, len(p.tracks))
	for _, t := range p.tracks {
		seen[t.Path] = true
	}

	added := 0
	for _, t := range tracks {
		if seen[t.Path] {
			continue
		}
		p.tracks = append(p.tracks, t)
		seen[t.Path] = true
		added++
	}
	p.sort()
	return added
}

// Replace swaps the whole sequence, dropping duplicates and restoring
// natural order.
func (p *Playlist) Replace(tracks []track.Track) {
	p.tracks = p.tracks[:0]
	p.Add(tracks...)
}

// Clear removes all tracks.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// SetDuration records the probed duration for the track at index i.
func (p *Playlist) SetDuration(i int, d time.Duration) {
	if p.InRange(i) {
		p.tracks[i].Duration = &d
	}
}

func (p *Playlist) sort() {
	sort.SliceStable(p.tracks, func(i, j int) bool {
		return track.NaturalLess(p.tracks[i], p.tracks[j])
	})
}
