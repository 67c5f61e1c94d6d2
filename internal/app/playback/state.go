// Package playback provides the playback engine and its transport state machine.
package playback

// State represents the transport state. It is always derived from the
// current index, the paused flag, and the live device-busy signal, never
// stored on its own.
type State int

const (
	StateIdle    State = iota // No track was ever started (or playlist cleared)
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
	StateStopped              // Playback was halted; any Start re-enters Playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// IsActive reports whether a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}
