package playback

import (
	"errors"
	"fmt"

	"github.com/Ra5c0/MP3-Player/internal/app/transcode"
)

// Errors
var (
	ErrEmptyPlaylist   = errors.New("playlist is empty")
	ErrIndexOutOfRange = errors.New("track index out of range")
)

// LoadError reports a track the output device could not load or play.
type LoadError struct {
	Path string // Source file path as listed in the playlist
	Err  error  // Underlying cause
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot play %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UserMessage returns the notification text for this failure. A missing
// external transcoder gets actionable guidance instead of the raw error.
func (e *LoadError) UserMessage() string {
	if errors.Is(e.Err, transcode.ErrTranscoderNotFound) {
		return fmt.Sprintf("Unable to play %s.\nInstall FFmpeg (in PATH) to enable the fallback, or convert the file to .mp3/.wav.", e.Path)
	}
	return fmt.Sprintf("Cannot play %s: %v", e.Path, e.Err)
}
