package player

import (
	"context"
	"fmt"
	"time"

	"wavebot/internal/catalog"
	"wavebot/internal/logging"
	"wavebot/internal/voice"

	"github.com/rs/zerolog"
)

const searchLimit = 10

// Config bounds the queue and the radio refill loop.
type Config struct {
	MaxQueueSize      int
	MaxSongLength     int // seconds
	MaxRefillAttempts int
	RefillTimeout     time.Duration // budget per refill attempt
}

// Events lets the glue layer react to playback transitions without the
// core knowing anything about Discord messages. Callbacks may be nil and
// are invoked outside the session lock.
type Events struct {
	NowPlaying    func(sessionID string, t Track)
	PlaybackError func(sessionID string, t Track, err error)
}

// Controller is the playback state machine. It serializes all
// transitions per session through the session mutex, keeps slow catalog
// calls outside of it, and revalidates with the session epoch before
// committing their results.
type Controller struct {
	registry  *Registry
	gateway   catalog.Gateway
	connector voice.Connector
	cfg       Config
	events    Events
	log       zerolog.Logger
}

// NewController wires the state machine to its collaborators.
func NewController(reg *Registry, gw catalog.Gateway, conn voice.Connector, cfg Config, events Events) *Controller {
	return &Controller{
		registry:  reg,
		gateway:   gw,
		connector: conn,
		cfg:       cfg.withDefaults(),
		events:    events,
		log:       logging.For("player"),
	}
}

// Registry exposes the session registry for read-only consumers (web view).
func (c *Controller) Registry() *Registry { return c.registry }

// EnqueueSearch resolves the best match for query and queues it. Returns
// the queued track so the caller can announce it.
func (c *Controller) EnqueueSearch(ctx context.Context, sessionID, channelID, query, requester string) (*Track, error) {
	s := c.registry.GetOrCreate(sessionID)

	found, err := c.gateway.Search(ctx, query, searchLimit)
	if err != nil || len(found) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", ErrUnavailable, query)
	}
	md := found[0]

	if md.Duration > c.cfg.MaxSongLength {
		return nil, ErrTrackTooLong
	}

	streamURL, err := c.gateway.ResolveStreamURL(ctx, md.ID)
	if err != nil || streamURL == "" {
		return nil, fmt.Errorf("%w: no stream url for track %s", ErrUnavailable, md.ID)
	}

	t := fromCatalog(md, streamURL, requester)
	if err := c.ensureSink(s, channelID); err != nil {
		return nil, err
	}
	if err := c.enqueue(s, t); err != nil {
		return nil, err
	}

	c.advance(ctx, s)
	return &t, nil
}

// EnqueuePlaylist queues up to limit tracks of a playlist. Returns how
// many were added and how many were skipped (too long, unresolvable, or
// queue full).
func (c *Controller) EnqueuePlaylist(ctx context.Context, sessionID, channelID, playlistID, requester string) (added, skipped int, err error) {
	return c.enqueueBatch(ctx, sessionID, channelID, requester, func() ([]catalog.Track, error) {
		return c.gateway.PlaylistTracks(ctx, playlistID, c.cfg.MaxQueueSize)
	})
}

// EnqueueAlbum queues an album's tracks.
func (c *Controller) EnqueueAlbum(ctx context.Context, sessionID, channelID, albumID, requester string) (added, skipped int, err error) {
	return c.enqueueBatch(ctx, sessionID, channelID, requester, func() ([]catalog.Track, error) {
		return c.gateway.AlbumTracks(ctx, albumID, c.cfg.MaxQueueSize)
	})
}

// EnqueueLiked queues the account's liked tracks.
func (c *Controller) EnqueueLiked(ctx context.Context, sessionID, channelID, requester string) (added, skipped int, err error) {
	return c.enqueueBatch(ctx, sessionID, channelID, requester, func() ([]catalog.Track, error) {
		return c.gateway.LikedTracks(ctx, 20)
	})
}

func (c *Controller) enqueueBatch(ctx context.Context, sessionID, channelID, requester string, fetch func() ([]catalog.Track, error)) (added, skipped int, err error) {
	s := c.registry.GetOrCreate(sessionID)

	found, err := fetch()
	if err != nil || len(found) == 0 {
		return 0, 0, fmt.Errorf("%w: nothing to queue", ErrUnavailable)
	}

	if err := c.ensureSink(s, channelID); err != nil {
		return 0, 0, err
	}

	for i, md := range found {
		if md.Duration > c.cfg.MaxSongLength {
			skipped++
			continue
		}
		streamURL, resolveErr := c.gateway.ResolveStreamURL(ctx, md.ID)
		if resolveErr != nil || streamURL == "" {
			skipped++
			continue
		}
		enqErr := c.enqueue(s, fromCatalog(md, streamURL, requester))
		if enqErr == ErrQueueFull {
			skipped += len(found) - i
			break
		}
		if enqErr != nil {
			return added, skipped, enqErr
		}
		added++
	}

	if added == 0 {
		return 0, skipped, fmt.Errorf("%w: nothing to queue", ErrUnavailable)
	}
	c.advance(ctx, s)
	return added, skipped, nil
}

// EnableRadio turns on "my wave" mode and starts playback if idle.
func (c *Controller) EnableRadio(ctx context.Context, sessionID, channelID string) error {
	s := c.registry.GetOrCreate(sessionID)

	if err := c.ensureSink(s, channelID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.continuous = true
	s.mu.Unlock()

	c.advance(ctx, s)
	return nil
}

// DisableRadio turns off auto-refill and clears the continuation cursor
// and dedup set atomically with the flag. Idempotent; the queue and the
// current track are left alone.
func (c *Controller) DisableRadio(sessionID string) error {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.continuous = false
	s.cursor = ""
	s.playedIDs = make(map[string]struct{})
	return nil
}

// Skip drops the current track. Under radio mode the queue is refilled
// first so the pipeline never runs dry; the sink stop then triggers the
// finished event, which advances as usual.
func (c *Controller) Skip(ctx context.Context, sessionID string) error {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return ErrNoTrackPlaying
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.nowPlaying == nil {
		s.mu.Unlock()
		return ErrNoTrackPlaying
	}
	continuous := s.continuous
	sink := s.sink
	s.mu.Unlock()

	if continuous {
		c.refillOne(ctx, s)
	}
	if sink != nil {
		sink.Stop()
	}
	return nil
}

// Pause pauses the current track. Pausing while idle is a clean no-op error.
func (c *Controller) Pause(sessionID string) error {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return ErrNoTrackPlaying
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePlaying || s.sink == nil {
		return ErrNoTrackPlaying
	}
	if err := s.sink.Pause(); err != nil {
		return err
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused track.
func (c *Controller) Resume(sessionID string) error {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return ErrNotPaused
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePaused || s.sink == nil {
		return ErrNotPaused
	}
	if err := s.sink.Resume(); err != nil {
		return err
	}
	s.state = StatePlaying
	return nil
}

// Stop tears the session down: queue, current track, radio state and the
// voice connection all go. The epoch bump makes any in-flight refill or
// finished event a dead letter.
func (c *Controller) Stop(sessionID string) error {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.epoch++
	s.queue = nil
	s.nowPlaying = nil
	s.state = StateIdle
	s.continuous = false
	s.cursor = ""
	s.playedIDs = make(map[string]struct{})
	sink := s.sink
	s.sink = nil
	s.mu.Unlock()

	if sink != nil {
		sink.Stop()
		if err := sink.Disconnect(); err != nil {
			c.log.Warn().Err(err).Str("session", sessionID).Msg("voice disconnect failed")
		}
	}
	c.registry.Remove(sessionID)
	return nil
}

// QueueView returns a snapshot of the session, or an empty idle view if
// none exists.
func (c *Controller) QueueView(sessionID string) QueueView {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return QueueView{}
	}
	return s.Snapshot()
}

// enqueue appends t to the session queue, enforcing the duration and
// capacity policies. No side effects beyond the queue itself.
func (c *Controller) enqueue(s *Session, t Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if t.Duration > c.cfg.MaxSongLength {
		return ErrTrackTooLong
	}
	if len(s.queue) >= c.cfg.MaxQueueSize {
		return ErrQueueFull
	}
	s.queue = append(s.queue, t)
	return nil
}

// ensureSink connects (or moves) the session's voice sink. The connect
// itself runs without the session lock; the result is committed only if
// the session still has no sink and was not stopped meanwhile.
func (c *Controller) ensureSink(s *Session, channelID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sink != nil {
		sink := s.sink
		s.mu.Unlock()
		if sink.ChannelID() != channelID {
			if err := sink.Move(channelID); err != nil {
				return fmt.Errorf("%w: voice move failed: %v", ErrUnavailable, err)
			}
		}
		return nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	sink, err := c.connector.Connect(s.id, channelID)
	if err != nil {
		return fmt.Errorf("%w: voice connect failed: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch || s.sink != nil {
		s.mu.Unlock()
		_ = sink.Disconnect()
		if s.closed {
			return ErrSessionClosed
		}
		return nil
	}
	s.sink = sink
	s.mu.Unlock()
	return nil
}

// advance pops the queue head into nowPlaying and starts the sink. When
// the queue is empty under radio mode it refills first. Tracks that fail
// to start are dropped and the next one is tried. advanceMu serializes
// calls, so an advance never interleaves with another; a call while a
// track is already playing does nothing.
func (c *Controller) advance(ctx context.Context, s *Session) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	for {
		s.mu.Lock()
		if s.closed || s.nowPlaying != nil {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			continuous := s.continuous
			s.state = StateIdle
			s.mu.Unlock()
			if !continuous || !c.refillOne(ctx, s) {
				return
			}
			continue
		}

		track := s.queue[0]
		s.queue = s.queue[1:]
		current := track
		s.nowPlaying = &current
		s.state = StatePlaying
		if track.ID != "" {
			s.playedIDs[track.ID] = struct{}{}
		}
		sink := s.sink
		epoch := s.epoch
		s.mu.Unlock()

		if sink == nil {
			c.log.Warn().Str("session", s.id).Msg("advance with no voice sink")
			s.mu.Lock()
			if s.epoch == epoch {
				s.nowPlaying = nil
				s.state = StateIdle
			}
			s.mu.Unlock()
			return
		}

		err := sink.Play(track.StreamURL, func(playErr error) {
			c.onFinished(s, epoch, track, playErr)
		})
		if err == nil {
			c.log.Info().Str("session", s.id).Str("title", track.Title).Str("artist", track.Artist).Msg("now playing")
			if c.events.NowPlaying != nil {
				c.events.NowPlaying(s.id, track)
			}
			return
		}

		// Skip-on-error: report, drop the track, try the next one.
		c.log.Error().Err(err).Str("session", s.id).Str("title", track.Title).Msg("failed to start track")
		if c.events.PlaybackError != nil {
			c.events.PlaybackError(s.id, track, err)
		}
		s.mu.Lock()
		if s.epoch == epoch {
			s.nowPlaying = nil
			s.state = StateIdle
		}
		s.mu.Unlock()
	}
}

// onFinished handles the sink's end-of-track notification. Results from
// a previous epoch (the session was stopped meanwhile) are discarded.
// Errors are logged, never surfaced: the machine just moves on.
func (c *Controller) onFinished(s *Session, epoch uint64, t Track, playErr error) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.nowPlaying = nil
	s.state = StateIdle
	s.mu.Unlock()

	if playErr != nil {
		c.log.Error().Err(playErr).Str("session", s.id).Str("title", t.Title).Msg("playback error, advancing")
		if c.events.PlaybackError != nil {
			c.events.PlaybackError(s.id, t, playErr)
		}
	}
	c.advance(context.Background(), s)
}
