package playback

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/Ra5c0/MP3-Player/internal/domain/playlist"
	"github.com/Ra5c0/MP3-Player/internal/domain/track"
)

// Engine owns the playlist and the transport state machine. All mutations
// go through it; the mutex serializes user intents against the progress
// tracker's tick.
type Engine struct {
	mu sync.Mutex

	list     *playlist.Playlist
	device   OutputDevice
	probe    DurationProbe
	resolver PathResolver
	selector *Selector

	// Transport state. current is -1 when no track is active; the
	// transport state itself is always derived, never stored.
	current     int
	paused      bool
	userStopped bool
	shuffle     bool
	volume      int

	// Elapsed clock for the active track: accumulated play time from
	// completed segments, excluding the running one.
	elapsedBase time.Duration

	duration      time.Duration
	durationKnown bool

	eventCh chan Event
	closed  bool
}

// Snapshot is a consistent read of everything the progress tracker needs
// for one tick.
type Snapshot struct {
	Active        bool
	Paused        bool
	Busy          bool
	UserStopped   bool
	Index         int
	Elapsed       time.Duration
	Duration      time.Duration
	DurationKnown bool
}

// NewEngine creates an engine over the given device, duration probe and
// path resolver.
func NewEngine(device OutputDevice, probe DurationProbe, resolver PathResolver) *Engine {
	return &Engine{
		list:     playlist.New(),
		device:   device,
		probe:    probe,
		resolver: resolver,
		selector: NewSelector(),
		current:  -1,
		volume:   80,
		eventCh:  make(chan Event, 10),
	}
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// Start begins playback of the track at index. On failure the prior
// transport state is left untouched and the error is also emitted as an
// EventPlaybackError.
func (e *Engine) Start(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(index)
}

func (e *Engine) startLocked(index int) error {
	if e.list.IsEmpty() {
		return ErrEmptyPlaylist
	}
	if !e.list.InRange(index) {
		return ErrIndexOutOfRange
	}

	t := e.list.At(index)

	// The resolver may fail (e.g. transcoder missing); keep its error
	// around because the follow-up load of the raw source will fail too,
	// and the resolver's cause is the actionable one.
	playPath, resolveErr := e.resolver.ResolvePlayable(t.Path)

	if err := e.device.Load(playPath); err != nil {
		cause := err
		if resolveErr != nil {
			cause = resolveErr
		}
		return e.failLocked(&LoadError{Path: t.Path, Err: cause})
	}
	if err := e.device.Play(); err != nil {
		return e.failLocked(&LoadError{Path: t.Path, Err: err})
	}

	e.current = index
	e.userStopped = false
	e.paused = false
	e.elapsedBase = 0
	e.device.SetVolume(float64(e.volume) / 100)

	// Duration is best-effort; probe failure never aborts playback.
	e.duration, e.durationKnown = 0, false
	if d, err := e.probe.Probe(t.Path); err != nil {
		zlog.Warn().Err(err).Msgf("playback: duration probe failed: %s", t.Path)
	} else {
		e.duration, e.durationKnown = d, true
		e.list.SetDuration(index, d)
	}

	cur := e.list.At(index)
	zlog.Debug().Msgf("playback: started track=%s index=%d duration_known=%v", cur.Stem(), index, e.durationKnown)
	e.sendEventLocked(Event{Type: EventTrackStarted, Index: index, Track: &cur, State: StatePlaying})
	return nil
}

func (e *Engine) failLocked(lerr *LoadError) error {
	zlog.Error().Err(lerr).Msg("playback: track failed to start")
	e.sendEventLocked(Event{Type: EventPlaybackError, Index: e.current, State: e.stateLocked(), Err: lerr})
	return lerr
}

// PlayPause toggles between playing and paused. On an idle engine with a
// non-empty playlist it is equivalent to Start(0).
func (e *Engine) PlayPause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current < 0 {
		if e.list.IsEmpty() {
			return nil
		}
		return e.startLocked(0)
	}

	if e.device.Busy() && !e.paused {
		// Freeze the live segment into the elapsed base before pausing.
		pos := e.device.Position()
		if pos < 0 {
			pos = 0
		}
		e.elapsedBase += pos
		e.device.Pause()
		e.paused = true
	} else {
		e.device.Unpause()
		e.paused = false
	}

	e.sendEventLocked(Event{Type: EventStateChanged, Index: e.current, State: e.stateLocked()})
	return nil
}

// Prev starts the previous track in playlist order, wrapping at the start.
// No-op on an empty playlist.
func (e *Engine) Prev() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.list.IsEmpty() {
		return nil
	}
	idx := 0
	if e.current >= 0 {
		n := e.list.Len()
		idx = (e.current - 1 + n) % n
	}
	return e.startLocked(idx)
}

// Next starts the track chosen by the active selection policy: sequential
// order, or the shuffle selector when shuffle is enabled. No-op on an
// empty playlist.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextLocked()
}

func (e *Engine) nextLocked() error {
	if e.list.IsEmpty() {
		return nil
	}

	var idx int
	if e.shuffle {
		pick, ok := e.selector.Pick(e.current, e.list.Len())
		if !ok {
			return nil
		}
		idx = pick
	} else {
		idx = 0
		if e.current >= 0 {
			idx = (e.current + 1) % e.list.Len()
		}
	}
	return e.startLocked(idx)
}

// ToggleShuffle flips shuffle mode. It takes effect on the next Next or
// auto-advance; the running track is unaffected.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.shuffle = !e.shuffle
	e.sendEventLocked(Event{Type: EventShuffleChanged, Index: e.current, State: e.stateLocked()})
	return e.shuffle
}

// SetVolume sets the output level as a percentage. Values outside [0, 100]
// are clamped silently; the change applies without interrupting playback.
func (e *Engine) SetVolume(level int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	e.volume = level
	e.device.SetVolume(float64(level) / 100)
}

// Halt stops playback administratively (playlist clear/reload). It marks
// the stop as user-initiated so the tick loop does not auto-advance.
func (e *Engine) Halt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haltLocked()
}

func (e *Engine) haltLocked() {
	e.userStopped = true
	e.device.Stop()
	e.paused = false
	e.elapsedBase = 0
	e.current = -1
	e.duration, e.durationKnown = 0, false
	e.sendEventLocked(Event{Type: EventHalted, Index: -1, State: e.stateLocked()})
}

// SetTracks halts playback and replaces the playlist contents.
func (e *Engine) SetTracks(tracks []track.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()
	e.list.Replace(tracks)
	e.sendEventLocked(Event{Type: EventTracksReplaced, Index: -1, State: e.stateLocked()})
}

// AddTracks appends tracks without interrupting playback. The playlist is
// re-sorted, so the active track's index may move; the engine follows it.
func (e *Engine) AddTracks(tracks []track.Track) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var activePath string
	if e.current >= 0 {
		activePath = e.list.At(e.current).Path
	}

	added := e.list.Add(tracks...)

	if activePath != "" {
		for i, t := range e.list.Tracks() {
			if t.Path == activePath {
				e.current = i
				break
			}
		}
	}
	if added > 0 {
		e.sendEventLocked(Event{Type: EventTracksReplaced, Index: e.current, State: e.stateLocked()})
	}
	return added
}

// Clear halts playback and empties the playlist.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()
	e.list.Clear()
	e.sendEventLocked(Event{Type: EventTracksReplaced, Index: -1, State: StateIdle})
}

// Tracks returns a copy of the playlist contents.
func (e *Engine) Tracks() []track.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Tracks()
}

// Paths returns the playlist paths in order.
func (e *Engine) Paths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Paths()
}

// CurrentIndex returns the active track index, if any.
func (e *Engine) CurrentIndex() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current < 0 {
		return 0, false
	}
	return e.current, true
}

// CurrentTrack returns the active track, if any.
func (e *Engine) CurrentTrack() (track.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current < 0 {
		return track.Track{}, false
	}
	return e.list.At(e.current), true
}

// State returns the derived transport state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.current < 0:
		if e.userStopped {
			return StateStopped
		}
		return StateIdle
	case e.paused:
		return StatePaused
	case e.device.Busy():
		return StatePlaying
	default:
		return StateStopped
	}
}

// IsPlaying reports whether a track is actively playing.
func (e *Engine) IsPlaying() bool {
	return e.State() == StatePlaying
}

// IsPaused reports whether the active track is paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current >= 0 && e.paused
}

// ShuffleEnabled reports whether shuffle mode is on.
func (e *Engine) ShuffleEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

// Volume returns the current volume percentage.
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// ElapsedMs returns the total elapsed play time of the active track in
// milliseconds: the accumulated base plus the live device position. The
// live segment contributes nothing while paused.
func (e *Engine) ElapsedMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked().Milliseconds()
}

func (e *Engine) elapsedLocked() time.Duration {
	if e.current < 0 {
		return 0
	}
	total := e.elapsedBase
	if !e.paused {
		if pos := e.device.Position(); pos > 0 {
			total += pos
		}
	}
	return total
}

// DurationMs returns the active track's duration in milliseconds, and
// whether it is known.
func (e *Engine) DurationMs() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration.Milliseconds(), e.durationKnown
}

// ProgressSnapshot returns a consistent view for one progress tick.
func (e *Engine) ProgressSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Active:        e.current >= 0,
		Paused:        e.paused,
		Busy:          e.device.Busy(),
		UserStopped:   e.userStopped,
		Index:         e.current,
		Elapsed:       e.elapsedLocked(),
		Duration:      e.duration,
		DurationKnown: e.durationKnown,
	}
}

// Close stops playback and closes the event channel. The progress tracker
// must be stopped first.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.device.Stop()
	e.closed = true
	close(e.eventCh)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	default:
		// Channel full, drop event.
	}
}
