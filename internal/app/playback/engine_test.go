package playback

import (
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ra5c0/MP3-Player/internal/app/transcode"
	"github.com/Ra5c0/MP3-Player/internal/domain/track"
)

// fakeDevice is a scriptable OutputDevice.
type fakeDevice struct {
	loaded    string
	busy      bool
	paused    bool
	position  time.Duration
	volume    float64
	loadErr   map[string]error
	playErr   error
	loadCalls []string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{loadErr: make(map[string]error)}
}

func (d *fakeDevice) Load(path string) error {
	d.loadCalls = append(d.loadCalls, path)
	if err, ok := d.loadErr[path]; ok {
		return err
	}
	d.loaded = path
	return nil
}

func (d *fakeDevice) Play() error {
	if d.playErr != nil {
		return d.playErr
	}
	d.busy = true
	d.paused = false
	d.position = 0
	return nil
}

func (d *fakeDevice) Pause() { d.paused = true }

func (d *fakeDevice) Unpause() {
	d.paused = false
	d.position = 0
}

func (d *fakeDevice) Stop() {
	d.busy = false
	d.loaded = ""
}

func (d *fakeDevice) Busy() bool { return d.busy }

func (d *fakeDevice) Position() time.Duration { return d.position }

func (d *fakeDevice) SetVolume(fraction float64) { d.volume = fraction }

// fakeProbe returns scripted durations.
type fakeProbe struct {
	durations map[string]time.Duration
}

func (p *fakeProbe) Probe(path string) (time.Duration, error) {
	if d, ok := p.durations[path]; ok {
		return d, nil
	}
	return 0, errors.Newf("no stream info for %s", path)
}

// passResolver returns every source unchanged.
type passResolver struct{}

func (passResolver) ResolvePlayable(source string) (string, error) {
	return source, nil
}

// failResolver mimics a cache whose transcoder is unavailable.
type failResolver struct {
	err error
}

func (r failResolver) ResolvePlayable(source string) (string, error) {
	return source, r.err
}

func testPaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/music/%02d track.mp3", i)
	}
	return paths
}

func newTestEngine(t *testing.T, n int) (*Engine, *fakeDevice, *fakeProbe) {
	t.Helper()

	device := newFakeDevice()
	probe := &fakeProbe{durations: make(map[string]time.Duration)}
	engine := NewEngine(device, probe, passResolver{})

	tracks := make([]track.Track, n)
	for i, p := range testPaths(n) {
		probe.durations[p] = 3 * time.Minute
		tracks[i] = track.New(p)
	}
	engine.SetTracks(tracks)
	return engine, device, probe
}

func TestEngine_Start(t *testing.T) {
	engine, device, _ := newTestEngine(t, 5)

	require.NoError(t, engine.Start(2))

	idx, ok := engine.CurrentIndex()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, StatePlaying, engine.State())
	assert.Equal(t, int64(0), engine.ElapsedMs())
	assert.Equal(t, testPaths(5)[2], device.loaded)

	dur, known := engine.DurationMs()
	assert.True(t, known)
	assert.Equal(t, (3 * time.Minute).Milliseconds(), dur)
}

func TestEngine_Start_Invalid(t *testing.T) {
	engine, _, _ := newTestEngine(t, 3)

	assert.ErrorIs(t, engine.Start(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, engine.Start(3), ErrIndexOutOfRange)

	engine.Clear()
	assert.ErrorIs(t, engine.Start(0), ErrEmptyPlaylist)
}

func TestEngine_Start_FailureKeepsState(t *testing.T) {
	engine, device, _ := newTestEngine(t, 5)
	paths := testPaths(5)

	require.NoError(t, engine.Start(0))
	device.position = 10 * time.Second

	device.loadErr[paths[3]] = errors.New("corrupt stream")
	err := engine.Start(3)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, paths[3], lerr.Path)

	// The failed attempt must not disturb the running track.
	idx, ok := engine.CurrentIndex()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	dur, known := engine.DurationMs()
	assert.True(t, known)
	assert.Equal(t, (3 * time.Minute).Milliseconds(), dur)
}

func TestEngine_PlayPause_IdleStartsFirstTrack(t *testing.T) {
	engine, _, _ := newTestEngine(t, 3)

	require.NoError(t, engine.PlayPause())

	idx, ok := engine.CurrentIndex()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, StatePlaying, engine.State())
}

func TestEngine_PlayPause_EmptyPlaylistIsNoop(t *testing.T) {
	device := newFakeDevice()
	engine := NewEngine(device, &fakeProbe{}, passResolver{})

	require.NoError(t, engine.PlayPause())
	_, ok := engine.CurrentIndex()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, engine.State())
}

func TestEngine_PlayPause_Continuity(t *testing.T) {
	engine, device, _ := newTestEngine(t, 3)
	require.NoError(t, engine.Start(0))

	// Pause at 3s of live position: the segment freezes into the base.
	device.position = 3 * time.Second
	require.NoError(t, engine.PlayPause())
	assert.Equal(t, StatePaused, engine.State())
	assert.Equal(t, int64(3000), engine.ElapsedMs())

	// While paused the live position contributes nothing.
	device.position = 99 * time.Second
	assert.Equal(t, int64(3000), engine.ElapsedMs())

	// Resume: the live position counts from zero again.
	require.NoError(t, engine.PlayPause())
	assert.Equal(t, StatePlaying, engine.State())
	assert.Equal(t, int64(3000), engine.ElapsedMs())

	device.position = 2 * time.Second
	assert.Equal(t, int64(5000), engine.ElapsedMs())
}

func TestEngine_Next_Sequential(t *testing.T) {
	engine, _, _ := newTestEngine(t, 5)

	require.NoError(t, engine.Start(2))
	require.NoError(t, engine.Next())

	idx, _ := engine.CurrentIndex()
	assert.Equal(t, 3, idx)

	// Wraps at the end.
	require.NoError(t, engine.Start(4))
	require.NoError(t, engine.Next())
	idx, _ = engine.CurrentIndex()
	assert.Equal(t, 0, idx)
}

func TestEngine_Next_NothingActiveStartsFirst(t *testing.T) {
	engine, _, _ := newTestEngine(t, 5)

	require.NoError(t, engine.Next())
	idx, _ := engine.CurrentIndex()
	assert.Equal(t, 0, idx)
}

func TestEngine_Next_Shuffle(t *testing.T) {
	engine, _, _ := newTestEngine(t, 5)
	engine.ToggleShuffle()

	// From index 2, shuffle must avoid the current track (2) and the
	// sequential successor (3).
	for i := 0; i < 50; i++ {
		require.NoError(t, engine.Start(2))
		require.NoError(t, engine.Next())
		idx, ok := engine.CurrentIndex()
		require.True(t, ok)
		assert.Contains(t, []int{0, 1, 4}, idx)
	}
}

func TestEngine_Next_ShuffleSingleTrackIsNoop(t *testing.T) {
	engine, _, _ := newTestEngine(t, 1)
	engine.ToggleShuffle()

	require.NoError(t, engine.Start(0))
	require.NoError(t, engine.Next())

	idx, _ := engine.CurrentIndex()
	assert.Equal(t, 0, idx)
}

func TestEngine_Prev(t *testing.T) {
	engine, _, _ := newTestEngine(t, 5)

	// Nothing active: Prev starts the first track.
	require.NoError(t, engine.Prev())
	idx, _ := engine.CurrentIndex()
	assert.Equal(t, 0, idx)

	// Wraps backwards.
	require.NoError(t, engine.Prev())
	idx, _ = engine.CurrentIndex()
	assert.Equal(t, 4, idx)
}

func TestEngine_SetVolume_Clamps(t *testing.T) {
	engine, device, _ := newTestEngine(t, 1)

	engine.SetVolume(150)
	assert.Equal(t, 100, engine.Volume())
	assert.InDelta(t, 1.0, device.volume, 1e-9)

	engine.SetVolume(-5)
	assert.Equal(t, 0, engine.Volume())
	assert.InDelta(t, 0.0, device.volume, 1e-9)

	engine.SetVolume(80)
	assert.Equal(t, 80, engine.Volume())
	assert.InDelta(t, 0.8, device.volume, 1e-9)
}

func TestEngine_Halt(t *testing.T) {
	engine, device, _ := newTestEngine(t, 3)
	require.NoError(t, engine.Start(1))
	device.position = 5 * time.Second

	engine.Halt()

	_, ok := engine.CurrentIndex()
	assert.False(t, ok)
	assert.Equal(t, StateStopped, engine.State())
	assert.Equal(t, int64(0), engine.ElapsedMs())
	assert.False(t, device.busy)

	snap := engine.ProgressSnapshot()
	assert.True(t, snap.UserStopped)
	assert.False(t, snap.Active)

	// Any Start re-enters Playing.
	require.NoError(t, engine.Start(0))
	assert.Equal(t, StatePlaying, engine.State())
}

func TestEngine_DurationProbeFailure(t *testing.T) {
	device := newFakeDevice()
	engine := NewEngine(device, &fakeProbe{}, passResolver{})
	engine.SetTracks([]track.Track{track.New("/music/unknown.mp3")})

	// Probe failure is non-fatal: playback proceeds, duration unknown.
	require.NoError(t, engine.Start(0))
	assert.Equal(t, StatePlaying, engine.State())

	_, known := engine.DurationMs()
	assert.False(t, known)
}

func TestEngine_TranscodeUnavailable(t *testing.T) {
	device := newFakeDevice()
	resolver := failResolver{err: errors.Wrap(transcode.ErrTranscoderNotFound, "ffmpeg")}
	engine := NewEngine(device, &fakeProbe{}, resolver)

	path := "/music/song.m4a"
	device.loadErr[path] = errors.New("unsupported format")
	engine.SetTracks([]track.Track{track.New(path)})

	err := engine.Start(0)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, transcode.ErrTranscoderNotFound)
	assert.Contains(t, lerr.UserMessage(), "FFmpeg")

	_, ok := engine.CurrentIndex()
	assert.False(t, ok)
}

func TestEngine_AddTracks_FollowsActiveTrack(t *testing.T) {
	engine, _, _ := newTestEngine(t, 3)
	require.NoError(t, engine.Start(1))

	// New tracks sort ahead of the active one; its index must follow.
	added := engine.AddTracks([]track.Track{track.New("/music/00 intro.mp3")})
	assert.Equal(t, 1, added)

	idx, ok := engine.CurrentIndex()
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	cur, ok := engine.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, testPaths(3)[1], cur.Path)
}

func TestEngine_Events(t *testing.T) {
	engine, _, _ := newTestEngine(t, 2)

	// Drain events emitted by setup.
	for len(engine.Events()) > 0 {
		<-engine.Events()
	}

	require.NoError(t, engine.Start(0))

	ev := <-engine.Events()
	assert.Equal(t, EventTrackStarted, ev.Type)
	assert.Equal(t, 0, ev.Index)
	require.NotNil(t, ev.Track)
	assert.Equal(t, StatePlaying, ev.State)
}

func TestEngine_CurrentIndexInvariant(t *testing.T) {
	engine, device, _ := newTestEngine(t, 4)

	check := func() {
		if idx, ok := engine.CurrentIndex(); ok {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 4)
		}
	}

	check()
	require.NoError(t, engine.Start(3))
	check()
	require.NoError(t, engine.Next())
	check()
	require.NoError(t, engine.Prev())
	check()
	device.position = time.Second
	require.NoError(t, engine.PlayPause())
	check()
	engine.Halt()
	check()
}
