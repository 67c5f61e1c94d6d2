package playback

import "github.com/Ra5c0/MP3-Player/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted   EventType = iota // A track started playing
	EventStateChanged                    // Playback state changed (pause/resume)
	EventShuffleChanged                  // Shuffle mode was toggled
	EventHalted                          // Playback was halted
	EventTracksReplaced                  // The playlist contents changed
	EventPlaybackError                   // A track failed to load or play
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventStateChanged:
		return "state_changed"
	case EventShuffleChanged:
		return "shuffle_changed"
	case EventHalted:
		return "halted"
	case EventTracksReplaced:
		return "tracks_replaced"
	case EventPlaybackError:
		return "playback_error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Index int          // Playlist index the event refers to (-1 when none)
	Track *track.Track // Track the event refers to (nil for some events)
	State State        // Transport state after the event
	Err   error        // Set for EventPlaybackError
}
