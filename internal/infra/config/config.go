// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Library   LibraryConfig   `yaml:"library"`
}

// AudioConfig selects and configures the output backend. Settings are
// backend-specific and decoded by the audio backend factory.
type AudioConfig struct {
	Backend  string         `yaml:"backend" default:"beep" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	// Progress tick interval; anything above 500ms degrades perceived
	// smoothness and is rejected.
	TickMs        int `yaml:"tick_ms" default:"200" validate:"gt=0,lte=500"`
	InitialVolume int `yaml:"initial_volume" default:"80" validate:"gte=0,lte=100"`
}

// TranscodeConfig represents the transcode fallback configuration.
type TranscodeConfig struct {
	FFmpegPath string   `yaml:"ffmpeg_path"` // Empty means look up "ffmpeg" in PATH
	CacheDir   string   `yaml:"cache_dir"`   // Empty means a dir under os.TempDir()
	Extensions []string `yaml:"extensions" default:"[\".m4a\"]"`
}

// LibraryConfig represents playlist persistence configuration.
type LibraryConfig struct {
	PlaylistsFile string `yaml:"playlists_file" default:"playlists.json"`
}

// TickInterval returns the progress tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickMs) * time.Millisecond
}

// Load loads configuration from a YAML file. A missing file is not an
// error; the defaults describe a fully working player. Environment
// variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		c.Transcode.FFmpegPath = v
	}
	if v := os.Getenv("PLAYER_CACHE_DIR"); v != "" {
		c.Transcode.CacheDir = v
	}
	if v := os.Getenv("PLAYER_PLAYLISTS_FILE"); v != "" {
		c.Library.PlaylistsFile = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
