package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tr := New("/music/Album/01 Intro.MP3")
	assert.Equal(t, "/music/Album/01 Intro.MP3", tr.Path)
	assert.Equal(t, ".mp3", tr.Ext)
	assert.Nil(t, tr.Duration)
}

func TestSupported(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "mp3", path: "/a/song.mp3", expected: true},
		{name: "uppercase extension", path: "/a/SONG.FLAC", expected: true},
		{name: "m4a", path: "/a/song.m4a", expected: true},
		{name: "ogg", path: "/a/song.ogg", expected: true},
		{name: "wav", path: "/a/song.wav", expected: true},
		{name: "text file", path: "/a/notes.txt", expected: false},
		{name: "no extension", path: "/a/song", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Supported(tt.path))
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "zero", duration: 0, expected: "00:00"},
		{name: "negative", duration: -3 * time.Second, expected: "00:00"},
		{name: "seconds only", duration: 42 * time.Second, expected: "00:42"},
		{name: "minutes and seconds", duration: 3*time.Minute + 7*time.Second, expected: "03:07"},
		{name: "over an hour", duration: 61*time.Minute + 5*time.Second, expected: "61:05"},
		{name: "sub-second truncated", duration: 1500 * time.Millisecond, expected: "00:01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatClock(tt.duration))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly-ten", Truncate("exactly-ten", 11))
	assert.Equal(t, "a long ...", Truncate("a long track title", 10))
}

func TestDisplayName(t *testing.T) {
	tr := New("/music/A Very Long Track Title Indeed.mp3")
	assert.Equal(t, "A Very Long Track Title Indeed", tr.DisplayName(70))
	assert.Equal(t, "A Very ...", tr.DisplayName(10))
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		less bool
	}{
		{name: "digit-aware ordering", a: "/m/track2.mp3", b: "/m/track10.mp3", less: true},
		{name: "plain lexicographic", a: "/m/alpha.mp3", b: "/m/beta.mp3", less: true},
		{name: "case insensitive", a: "/m/Alpha.mp3", b: "/m/beta.mp3", less: true},
		{name: "equal stems", a: "/m/same.mp3", b: "/n/same.ogg", less: false},
		{name: "number before text", a: "/m/01 intro.mp3", b: "/m/outro.mp3", less: true},
		{name: "shared prefix shorter first", a: "/m/song.mp3", b: "/m/song extra.mp3", less: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.less, NaturalLess(New(tt.a), New(tt.b)))
		})
	}
}
