// Package progress drives the periodic progress and auto-advance loop.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/Ra5c0/MP3-Player/internal/app/playback"
	"github.com/Ra5c0/MP3-Player/internal/domain/track"
)

// DefaultInterval is the recommended tick interval. Anything at or below
// 500ms keeps the displayed progress smooth.
const DefaultInterval = 200 * time.Millisecond

// Controller is the engine surface the tracker polls and advances.
type Controller interface {
	ProgressSnapshot() playback.Snapshot
	Next() error
}

// Update is one formatted progress reading.
type Update struct {
	Index         int
	Elapsed       string  // "MM:SS"
	Duration      string  // "MM:SS", "00:00" when unknown
	Fraction      float64 // Progress in [0, 1]; neutral 0.5 when duration unknown
	Paused        bool
	DurationKnown bool
}

// Tracker polls the controller on a fixed interval, publishes progress
// updates, and triggers auto-advance when a track ends naturally. It is an
// explicit repeating task with a cancellation handle, decoupled from any
// UI loop.
type Tracker struct {
	controller Controller
	interval   time.Duration
	updates    chan Update

	cancel context.CancelFunc
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewTracker creates a tracker polling at the given interval.
// A non-positive interval falls back to DefaultInterval.
func NewTracker(c Controller, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		controller: c,
		interval:   interval,
		updates:    make(chan Update, 4),
		done:       make(chan struct{}),
	}
}

// Updates returns the progress update channel.
func (t *Tracker) Updates() <-chan Update {
	return t.updates
}

// Start launches the tick loop. Safe to call once.
func (t *Tracker) Start() {
	t.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		t.cancel = cancel
		go t.run(ctx)
	})
}

// Stop cancels the tick loop and waits for it to exit, so no tick can fire
// against a torn-down engine.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		if t.cancel == nil {
			close(t.done)
			return
		}
		t.cancel()
		<-t.done
	})
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick runs one poll cycle. Split out so tests can drive ticks manually.
func (t *Tracker) tick() {
	snap := t.controller.ProgressSnapshot()

	if snap.Active {
		t.publish(snap)
	}

	// Natural end of stream: device went quiet without a pause or an
	// explicit stop. This is the only auto-advance trigger.
	if snap.Active && !snap.Busy && !snap.Paused && !snap.UserStopped {
		_ = t.controller.Next()
	}
}

func (t *Tracker) publish(snap playback.Snapshot) {
	u := Update{
		Index:         snap.Index,
		Elapsed:       track.FormatClock(snap.Elapsed),
		Paused:        snap.Paused,
		DurationKnown: snap.DurationKnown,
	}

	if snap.DurationKnown && snap.Duration > 0 {
		frac := float64(snap.Elapsed) / float64(snap.Duration)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		u.Fraction = frac
		u.Duration = track.FormatClock(snap.Duration)
	} else {
		// Without a duration there is no real fraction to show; hold a
		// neutral midpoint while playing.
		u.Fraction = 0.5
		if snap.Paused {
			u.Fraction = 0
		}
		u.Duration = track.FormatClock(0)
	}

	select {
	case t.updates <- u:
	default:
		// Consumer is behind, drop the reading.
	}
}
