// Package audio provides output device implementations for the playback
// engine.
package audio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Number of powers of the volume base between mute and full level.
const volumeRange = 5.0

// BeepSettings configures the beep output backend.
type BeepSettings struct {
	SampleRate int `mapstructure:"sample_rate"`
	BufferMs   int `mapstructure:"buffer_ms"`
}

// BeepDevice plays audio through the gopxl/beep speaker. It decodes mp3,
// wav, flac and ogg-vorbis natively; anything else fails to load, which is
// what drives the transcode fallback.
type BeepDevice struct {
	mu sync.Mutex

	sampleRate  beep.SampleRate
	bufferSize  int
	initialized bool

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	fraction float64

	// markSamples is the source sample position at the last Play or
	// Unpause; Position counts from there.
	markSamples int
	playing     bool
	done        chan struct{}
}

// NewBeepDevice creates a device with the given settings.
func NewBeepDevice(s BeepSettings) *BeepDevice {
	if s.SampleRate <= 0 {
		s.SampleRate = 44100
	}
	if s.BufferMs <= 0 {
		s.BufferMs = 100
	}
	rate := beep.SampleRate(s.SampleRate)
	return &BeepDevice{
		sampleRate: rate,
		bufferSize: rate.N(time.Duration(s.BufferMs) * time.Millisecond),
		fraction:   1,
	}
}

// Load decodes the file at path and prepares it for playback, replacing
// any previously loaded track.
func (d *BeepDevice) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return errors.Newf("unsupported format: %s", path)
	}
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to decode %s", path)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	if !d.initialized {
		if err := speaker.Init(d.sampleRate, d.bufferSize); err != nil {
			streamer.Close()
			return errors.Wrap(err, "failed to initialize speaker")
		}
		d.initialized = true
	}

	d.streamer = streamer
	d.format = format
	return nil
}

// Play starts playback of the loaded track from the beginning.
func (d *BeepDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return errors.New("no track loaded")
	}

	resampled := beep.Resample(4, d.format.SampleRate, d.sampleRate, d.streamer)
	d.ctrl = &beep.Ctrl{Streamer: resampled}
	d.volume = &effects.Volume{Streamer: d.ctrl, Base: 2}
	d.applyVolumeLocked()

	d.markSamples = 0
	d.playing = true
	done := make(chan struct{})
	d.done = done

	// The callback runs on the speaker goroutine; it must not take d.mu.
	speaker.Play(beep.Seq(d.volume, beep.Callback(func() {
		close(done)
	})))
	return nil
}

// Pause suspends playback.
func (d *BeepDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl == nil {
		return
	}
	speaker.Lock()
	d.ctrl.Paused = true
	speaker.Unlock()
}

// Unpause resumes playback. The live position restarts from zero.
func (d *BeepDevice) Unpause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl == nil {
		return
	}
	speaker.Lock()
	d.markSamples = d.streamer.Position()
	d.ctrl.Paused = false
	speaker.Unlock()
}

// Stop halts playback and discards the loaded track.
func (d *BeepDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *BeepDevice) stopLocked() {
	if d.initialized {
		speaker.Clear()
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.volume = nil
	d.playing = false
	d.done = nil
	d.markSamples = 0
}

// Busy reports whether a track is loaded and has not finished streaming.
// A paused track still counts as busy.
func (d *BeepDevice) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.playing {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

// Position returns the play time since the last Play or Unpause.
func (d *BeepDevice) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil || !d.playing {
		return 0
	}
	speaker.Lock()
	pos := d.streamer.Position()
	speaker.Unlock()

	if pos < d.markSamples {
		return 0
	}
	return d.format.SampleRate.D(pos - d.markSamples)
}

// SetVolume sets the output gain as a fraction in [0.0, 1.0], mapped onto
// a perceptual curve.
func (d *BeepDevice) SetVolume(fraction float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	d.fraction = fraction

	if d.volume == nil {
		return
	}
	speaker.Lock()
	d.applyVolumeLocked()
	speaker.Unlock()
}

func (d *BeepDevice) applyVolumeLocked() {
	d.volume.Silent = d.fraction <= 0
	d.volume.Volume = (math.Sqrt(d.fraction) - 1) * volumeRange
}
