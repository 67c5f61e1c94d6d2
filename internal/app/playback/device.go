package playback

import "time"

// OutputDevice is the audio backend the engine drives. Implementations are
// not required to be safe for concurrent use; the engine serializes access.
type OutputDevice interface {
	// Load prepares path for playback, replacing any loaded track.
	Load(path string) error
	// Play starts playback of the loaded track from the beginning.
	Play() error
	// Pause suspends playback.
	Pause()
	// Unpause resumes suspended playback.
	Unpause()
	// Stop halts playback and discards the loaded track.
	Stop()
	// Busy reports whether the device is currently producing audio.
	// A paused track still counts as busy.
	Busy() bool
	// Position returns the play time since the last Play/Unpause,
	// or 0 if the device has none to report.
	Position() time.Duration
	// SetVolume sets the output gain as a fraction in [0.0, 1.0].
	SetVolume(fraction float64)
}

// DurationProbe reads the total duration of an audio file. Failures are
// non-fatal; callers treat the duration as unknown.
type DurationProbe interface {
	Probe(path string) (time.Duration, error)
}

// PathResolver turns a source file into something the device can load,
// transcoding through an external tool when needed. On failure it returns
// the source path unchanged along with the error.
type PathResolver interface {
	ResolvePlayable(source string) (string, error)
}
