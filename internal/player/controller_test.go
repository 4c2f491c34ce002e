package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wavebot/internal/catalog"
	"wavebot/internal/voice"

	"github.com/stretchr/testify/require"
)

// fakeGateway scripts catalog answers per test.
type fakeGateway struct {
	mu           sync.Mutex
	searchResult []catalog.Track
	searchErr    error
	urls         map[string]string // trackID -> stream url; missing = resolve failure
	radio        []radioStep
	radioCalls   int
	radioGate    chan struct{} // when set, NextRadioTrack blocks until closed
	cursors      []string      // cursor received per radio call
}

type radioStep struct {
	cand *catalog.RadioCandidate
	err  error
}

func (g *fakeGateway) Search(_ context.Context, _ string, _ int) ([]catalog.Track, error) {
	return g.searchResult, g.searchErr
}

func (g *fakeGateway) ResolveStreamURL(_ context.Context, trackID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	url, ok := g.urls[trackID]
	if !ok {
		return "", errors.New("no url")
	}
	return url, nil
}

func (g *fakeGateway) NextRadioTrack(_ context.Context, cursor string) (*catalog.RadioCandidate, error) {
	if g.radioGate != nil {
		<-g.radioGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursors = append(g.cursors, cursor)
	if g.radioCalls >= len(g.radio) {
		return nil, nil
	}
	step := g.radio[g.radioCalls]
	g.radioCalls++
	return step.cand, step.err
}

func (g *fakeGateway) PlaylistTracks(_ context.Context, _ string, _ int) ([]catalog.Track, error) {
	return g.searchResult, g.searchErr
}

func (g *fakeGateway) AlbumTracks(_ context.Context, _ string, _ int) ([]catalog.Track, error) {
	return g.searchResult, g.searchErr
}

func (g *fakeGateway) LikedTracks(_ context.Context, _ int) ([]catalog.Track, error) {
	return g.searchResult, g.searchErr
}

// fakeSink records play calls and lets tests fire the finished event.
type fakeSink struct {
	mu         sync.Mutex
	played     []string
	onFinished func(error)
	paused     bool
	stopped    bool
}

func (f *fakeSink) Play(url string, onFinished func(error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, url)
	f.onFinished = onFinished
	return nil
}

// finish simulates the async end-of-track notification.
func (f *fakeSink) finish(err error) {
	f.mu.Lock()
	cb := f.onFinished
	f.onFinished = nil
	f.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func (f *fakeSink) Pause() error  { f.mu.Lock(); f.paused = true; f.mu.Unlock(); return nil }
func (f *fakeSink) Resume() error { f.mu.Lock(); f.paused = false; f.mu.Unlock(); return nil }
func (f *fakeSink) Stop()         { f.finish(nil) }
func (f *fakeSink) Disconnect() error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}
func (f *fakeSink) ChannelID() string   { return "chan-1" }
func (f *fakeSink) Move(_ string) error { return nil }
func (f *fakeSink) playCount() int      { f.mu.Lock(); defer f.mu.Unlock(); return len(f.played) }
func (f *fakeSink) lastPlayed() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.played[len(f.played)-1]
}

type fakeConnector struct{ sink *fakeSink }

func (c *fakeConnector) Connect(_, _ string) (voice.Sink, error) { return c.sink, nil }

func md(id string, dur int) catalog.Track {
	return catalog.Track{ID: id, Title: "t-" + id, Artist: "a-" + id, Duration: dur}
}

func newTestController(gw *fakeGateway, cfg Config) (*Controller, *fakeSink) {
	sink := &fakeSink{}
	if gw.urls == nil {
		gw.urls = map[string]string{}
	}
	c := NewController(NewRegistry(), gw, &fakeConnector{sink: sink}, cfg, Events{})
	return c, sink
}

func TestEnqueueSearchPlaysWhenIdle(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls:         map[string]string{"1": "http://stream/1"},
	}
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	tr, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "query", "user")
	require.NoError(t, err)
	require.Equal(t, "1", tr.ID)
	require.Equal(t, "http://stream/1", sink.lastPlayed())

	view := c.QueueView("g1")
	require.Equal(t, StatePlaying, view.State)
	require.NotNil(t, view.NowPlaying)
	require.Empty(t, view.Queue)
}

// Scenario A: third enqueue into a 2-slot queue is rejected with QueueFull.
func TestQueueCapacity(t *testing.T) {
	gw := &fakeGateway{urls: map[string]string{}}
	c, _ := newTestController(gw, Config{MaxQueueSize: 2, MaxSongLength: 600})

	s := c.registry.GetOrCreate("g1")
	for i := 1; i <= 3; i++ {
		id := fmt.Sprint(i)
		err := c.enqueue(s, Track{ID: id, Duration: 100, StreamURL: "u" + id})
		if i <= 2 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, ErrQueueFull)
		}
	}
	require.Len(t, s.Snapshot().Queue, 2)
}

// Scenario B: over-length tracks are rejected and the queue is untouched.
func TestTrackTooLong(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 601)},
		urls:         map[string]string{"1": "http://stream/1"},
	}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.ErrorIs(t, err, ErrTrackTooLong)
	require.Empty(t, c.QueueView("g1").Queue)
}

// Scenario C: refill skips already-played candidates and accepts the
// first fresh one, growing playedIDs by exactly one id.
func TestRefillSkipsPlayed(t *testing.T) {
	gw := &fakeGateway{
		radio: []radioStep{
			{cand: &catalog.RadioCandidate{Track: md("old1", 100), NextCursor: "c1"}},
			{cand: &catalog.RadioCandidate{Track: md("old2", 100), NextCursor: "c2"}},
			{cand: &catalog.RadioCandidate{Track: md("fresh", 100), NextCursor: "c3"}},
		},
		urls: map[string]string{"fresh": "http://stream/fresh"},
	}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 10, RefillTimeout: time.Second})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.playedIDs["old1"] = struct{}{}
	s.playedIDs["old2"] = struct{}{}
	before := len(s.playedIDs)
	s.mu.Unlock()

	require.True(t, c.refillOne(context.Background(), s))

	view := s.Snapshot()
	require.Len(t, view.Queue, 1)
	require.Equal(t, "fresh", view.Queue[0].ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.playedIDs, before+1)
	require.Contains(t, s.playedIDs, "fresh")
	require.Equal(t, "c3", s.cursor)
}

// Scenario D: all attempts return played candidates -> refill fails, no
// queue mutation, session stays idle.
func TestRefillExhaustsAttempts(t *testing.T) {
	steps := make([]radioStep, 10)
	for i := range steps {
		steps[i] = radioStep{cand: &catalog.RadioCandidate{Track: md("dup", 100), NextCursor: fmt.Sprintf("c%d", i)}}
	}
	gw := &fakeGateway{radio: steps, urls: map[string]string{"dup": "u"}}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 10, RefillTimeout: time.Second})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.playedIDs["dup"] = struct{}{}
	s.mu.Unlock()

	require.False(t, c.refillOne(context.Background(), s))
	view := s.Snapshot()
	require.Empty(t, view.Queue)
	require.Equal(t, StateIdle, view.State)
	require.Equal(t, 10, gw.radioCalls)
}

// Id-less candidates consume the cursor and an attempt but are never accepted.
func TestRefillIdlessCandidate(t *testing.T) {
	gw := &fakeGateway{
		radio: []radioStep{
			{cand: &catalog.RadioCandidate{Track: catalog.Track{Title: "noid", Duration: 100}, NextCursor: "c1"}},
			{cand: &catalog.RadioCandidate{Track: md("good", 100), NextCursor: "c2"}},
		},
		urls: map[string]string{"good": "u"},
	}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 10, RefillTimeout: time.Second})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.mu.Unlock()

	require.True(t, c.refillOne(context.Background(), s))
	require.Equal(t, []string{"", "c1"}, gw.cursors)
	require.Equal(t, "good", s.Snapshot().Queue[0].ID)
}

// The feed answering "nothing" aborts immediately instead of burning attempts.
func TestRefillFeedExhausted(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 10, RefillTimeout: time.Second})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.mu.Unlock()

	require.False(t, c.refillOne(context.Background(), s))
	require.Equal(t, 1, len(gw.cursors))
}

// Scenario E: a playback error advances to the next queued track.
func TestPlaybackErrorAdvances(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls:         map[string]string{"1": "http://stream/1", "2": "http://stream/2"},
	}
	var errored []string
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})
	c.events.PlaybackError = func(_ string, tr Track, _ error) { errored = append(errored, tr.ID) }

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.NoError(t, err)

	s := c.registry.GetOrCreate("g1")
	require.NoError(t, c.enqueue(s, Track{ID: "2", Duration: 100, StreamURL: "http://stream/2"}))

	sink.finish(errors.New("stream unreachable"))

	require.Equal(t, []string{"1"}, errored)
	require.Equal(t, "http://stream/2", sink.lastPlayed())
	require.Equal(t, StatePlaying, c.QueueView("g1").State)
}

// Scenario F: a stop during an in-flight refill discards the late result.
func TestStopDiscardsInFlightRefill(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{
		radio:     []radioStep{{cand: &catalog.RadioCandidate{Track: md("late", 100), NextCursor: "c1"}}},
		urls:      map[string]string{"late": "http://stream/late"},
		radioGate: gate,
	}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 3, RefillTimeout: time.Second})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.mu.Unlock()

	done := make(chan bool, 1)
	go func() { done <- c.refillOne(context.Background(), s) }()

	// Stop while NextRadioTrack is blocked, then let it resolve.
	require.NoError(t, c.Stop("g1"))
	close(gate)

	require.False(t, <-done)
	require.Empty(t, s.Snapshot().Queue)
}

// Epoch law: a finished event from before a stop is never applied.
func TestStaleFinishedDiscarded(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls:         map[string]string{"1": "http://stream/1"},
	}
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.NoError(t, err)

	sink.mu.Lock()
	cb := sink.onFinished // captured before the stop invalidates it
	sink.mu.Unlock()
	require.NoError(t, c.Stop("g1"))
	require.NotNil(t, cb)
	cb(nil) // late delivery after the epoch bump

	// Session was removed on stop; a fresh view is empty and idle.
	view := c.QueueView("g1")
	require.Nil(t, view.NowPlaying)
	require.Equal(t, StateIdle, view.State)
	require.Equal(t, 1, sink.playCount())
}

func TestSkipRefillsBeforeDroppingCurrent(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls: map[string]string{
			"1": "http://stream/1",
			"r": "http://stream/r",
		},
		radio: []radioStep{{cand: &catalog.RadioCandidate{Track: md("r", 100), NextCursor: "c1"}}},
	}
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600, MaxRefillAttempts: 3, RefillTimeout: time.Second})

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.NoError(t, err)
	require.NoError(t, c.EnableRadio(context.Background(), "g1", "chan-1"))

	require.NoError(t, c.Skip(context.Background(), "g1"))

	// The refilled track started playing; the queue never went dry.
	require.Equal(t, "http://stream/r", sink.lastPlayed())
	require.Equal(t, StatePlaying, c.QueueView("g1").State)
}

func TestSkipWhileIdle(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})
	require.ErrorIs(t, c.Skip(context.Background(), "g1"), ErrNoTrackPlaying)
}

func TestPauseResume(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls:         map[string]string{"1": "http://stream/1"},
	}
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	// Illegal transitions are clean no-op errors.
	require.ErrorIs(t, c.Pause("g1"), ErrNoTrackPlaying)
	require.ErrorIs(t, c.Resume("g1"), ErrNotPaused)

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.NoError(t, err)

	require.NoError(t, c.Pause("g1"))
	require.True(t, sink.paused)
	require.Equal(t, StatePaused, c.QueueView("g1").State)
	require.ErrorIs(t, c.Pause("g1"), ErrNoTrackPlaying)

	require.NoError(t, c.Resume("g1"))
	require.False(t, sink.paused)
	require.Equal(t, StatePlaying, c.QueueView("g1").State)
	require.ErrorIs(t, c.Resume("g1"), ErrNotPaused)
}

// Idempotence: disabling radio twice equals disabling it once.
func TestDisableRadioIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	s := c.registry.GetOrCreate("g1")
	s.mu.Lock()
	s.continuous = true
	s.cursor = "c9"
	s.playedIDs["x"] = struct{}{}
	s.mu.Unlock()

	require.NoError(t, c.DisableRadio("g1"))
	require.NoError(t, c.DisableRadio("g1"))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.False(t, s.continuous)
	require.Empty(t, s.cursor)
	require.Empty(t, s.playedIDs)
}

func TestStopClearsEverything(t *testing.T) {
	gw := &fakeGateway{
		searchResult: []catalog.Track{md("1", 100)},
		urls:         map[string]string{"1": "http://stream/1"},
	}
	c, sink := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	_, err := c.EnqueueSearch(context.Background(), "g1", "chan-1", "q", "u")
	require.NoError(t, err)
	require.NoError(t, c.EnableRadio(context.Background(), "g1", "chan-1"))

	require.NoError(t, c.Stop("g1"))
	require.True(t, sink.stopped)

	// The session is gone; stale handles fail cleanly.
	_, ok := c.registry.Get("g1")
	require.False(t, ok)
}

func TestClosedSessionFailsCleanly(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newTestController(gw, Config{MaxQueueSize: 5, MaxSongLength: 600})

	s := c.registry.GetOrCreate("g1")
	c.registry.Remove("g1")

	require.ErrorIs(t, c.enqueue(s, Track{ID: "1", Duration: 1, StreamURL: "u"}), ErrSessionClosed)

	// A retry recreates a fresh session.
	fresh := c.registry.GetOrCreate("g1")
	require.NotSame(t, s, fresh)
	require.NoError(t, c.enqueue(fresh, Track{ID: "1", Duration: 1, StreamURL: "u"}))
}
