package player

import (
	"sync"

	"wavebot/internal/voice"
)

// State is the per-session playback state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Session owns all mutable playback state for one guild voice session.
// Every field below mu is guarded by it. The registry is the sole owner;
// controller operations look the session up per call and never cache it.
type Session struct {
	id string

	mu         sync.Mutex
	queue      []Track
	nowPlaying *Track
	sink       voice.Sink
	state      State

	continuous bool                // "my wave" auto-refill active
	cursor     string              // radio continuation cursor; cleared with continuous
	playedIDs  map[string]struct{} // ids surfaced this session; cleared with continuous

	// epoch is bumped on stop/remove. Async results (refill commits,
	// finished callbacks) carry the epoch they started under and are
	// discarded when it no longer matches.
	epoch uint64

	closed bool // session removed from the registry

	// advanceMu serializes advance steps. It is always taken before mu
	// and held across an entire advance, refill included, so at most one
	// transition is ever in flight per session.
	advanceMu sync.Mutex
}

// ID returns the session identifier (guild id).
func (s *Session) ID() string { return s.id }

func newSession(id string) *Session {
	return &Session{
		id:        id,
		playedIDs: make(map[string]struct{}),
	}
}

// QueueView is a consistent read-only snapshot of one session.
type QueueView struct {
	NowPlaying *Track
	Queue      []Track
	State      State
	Continuous bool
}

// Snapshot copies the observable state under the session lock.
func (s *Session) Snapshot() QueueView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := QueueView{
		Queue:      make([]Track, len(s.queue)),
		State:      s.state,
		Continuous: s.continuous,
	}
	copy(view.Queue, s.queue)
	if s.nowPlaying != nil {
		np := *s.nowPlaying
		view.NowPlaying = &np
	}
	return view
}
