// Package ffmpeg drives the external ffmpeg and ffprobe tools.
package ffmpeg

import (
	"bytes"
	"os/exec"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/Ra5c0/MP3-Player/internal/app/transcode"
)

// Transcoder converts audio files with ffmpeg. Output is fixed to
// 2-channel 44.1kHz PCM WAV, which every backend decodes natively.
type Transcoder struct {
	binary string // configured path, or "" to look up "ffmpeg" in PATH
}

// NewTranscoder creates a Transcoder. binary may be empty to use PATH.
func NewTranscoder(binary string) *Transcoder {
	return &Transcoder{binary: binary}
}

// Convert writes a WAV rendition of source to target. A missing ffmpeg
// binary is reported as transcode.ErrTranscoderNotFound so callers can
// distinguish it from a conversion failure.
func (t *Transcoder) Convert(source, target string) error {
	bin, err := t.resolveBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(bin, "-y", "-i", source, "-ac", "2", "-ar", "44100", "-f", "wav", target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	zlog.Debug().Msgf("ffmpeg: converting %s -> %s", source, target)
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ffmpeg failed for %s: %s", source, stderr.String())
	}
	return nil
}

func (t *Transcoder) resolveBinary() (string, error) {
	name := t.binary
	if name == "" {
		name = "ffmpeg"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(transcode.ErrTranscoderNotFound, "%s", name)
	}
	return bin, nil
}
