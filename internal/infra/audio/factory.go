package audio

import (
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/Ra5c0/MP3-Player/internal/app/playback"
	"github.com/Ra5c0/MP3-Player/internal/infra/config"
)

// New creates the output device selected by the audio configuration,
// decoding the backend-specific settings map.
func New(cfg config.AudioConfig) (playback.OutputDevice, error) {
	switch cfg.Backend {
	case "beep", "":
		var settings BeepSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid beep backend settings")
		}
		return NewBeepDevice(settings), nil
	default:
		return nil, errors.Newf("unknown audio backend: %s", cfg.Backend)
	}
}
