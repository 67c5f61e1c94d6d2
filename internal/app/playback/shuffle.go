package playback

import (
	"math/rand"
	"time"
)

// Selector chooses the next track index under the shuffle policy: never the
// current track, and never the track plain sequential order would have
// picked, except on playlists too small to honor both exclusions.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a Selector with a time-seeded random source.
func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource creates a Selector with the given source, allowing
// deterministic selection in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// Pick returns the next index for a playlist of length n. current is the
// active index, or negative when no track is active. The second return is
// false when no pick exists (empty or single-track playlist).
func (s *Selector) Pick(current, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	if current < 0 {
		return s.rng.Intn(n), true
	}

	nextSeq := (current + 1) % n
	forbidden := map[int]bool{current: true, nextSeq: true}

	if n <= len(forbidden) {
		// Degenerate playlist: anything but the current track.
		for i := 0; i < n; i++ {
			if i != current {
				return i, true
			}
		}
		return 0, false
	}

	choices := make([]int, 0, n-len(forbidden))
	for i := 0; i < n; i++ {
		if !forbidden[i] {
			choices = append(choices, i)
		}
	}
	return choices[s.rng.Intn(len(choices))], true
}
