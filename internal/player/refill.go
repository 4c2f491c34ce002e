package player

import (
	"context"
	"time"

	"wavebot/internal/catalog"
)

// refillOne asks the radio feed for one fresh track and appends it to
// the queue. Up to MaxRefillAttempts candidates are considered: id-less
// and already-played candidates consume the continuation cursor and an
// attempt, a gateway error or timeout consumes an attempt, and a clean
// empty answer aborts immediately. The feed and URL calls run without
// the session lock; every commit re-checks the epoch and the continuous
// flag so a stop (or radio-off) in flight discards the result.
//
// Returns true when a track was appended. Failure is not fatal: the
// queue simply stays as it was.
func (c *Controller) refillOne(ctx context.Context, s *Session) bool {
	s.mu.Lock()
	if s.closed || !s.continuous {
		s.mu.Unlock()
		return false
	}
	epoch := s.epoch
	cursor := s.cursor
	s.mu.Unlock()

	for attempt := 0; attempt < c.cfg.MaxRefillAttempts; attempt++ {
		cand, err := c.nextCandidate(ctx, cursor)
		if err != nil {
			c.log.Warn().Err(err).Str("session", s.id).Int("attempt", attempt+1).Msg("radio feed attempt failed")
			continue
		}
		if cand == nil {
			c.log.Warn().Str("session", s.id).Msg("radio feed returned nothing, giving up")
			return false
		}
		if cand.NextCursor != "" {
			cursor = cand.NextCursor
		}

		if cand.Track.ID == "" {
			// Cannot dedup an id-less candidate; consume its cursor and retry.
			if !c.commitCursor(s, epoch, cursor) {
				return false
			}
			continue
		}

		s.mu.Lock()
		if s.closed || s.epoch != epoch || !s.continuous {
			s.mu.Unlock()
			return false
		}
		_, seen := s.playedIDs[cand.Track.ID]
		s.cursor = cursor
		if !seen {
			s.playedIDs[cand.Track.ID] = struct{}{}
		}
		s.mu.Unlock()

		if seen {
			c.log.Debug().Str("session", s.id).Str("track", cand.Track.ID).Msg("radio candidate already played")
			continue
		}

		resolveCtx, cancel := context.WithTimeout(ctx, c.cfg.RefillTimeout)
		streamURL, err := c.gateway.ResolveStreamURL(resolveCtx, cand.Track.ID)
		cancel()
		if err != nil || streamURL == "" {
			c.log.Warn().Err(err).Str("session", s.id).Str("track", cand.Track.ID).Msg("radio candidate has no stream url")
			return false
		}

		t := fromCatalog(cand.Track, streamURL, "")
		s.mu.Lock()
		if s.closed || s.epoch != epoch || !s.continuous || len(s.queue) >= c.cfg.MaxQueueSize {
			s.mu.Unlock()
			return false
		}
		s.queue = append(s.queue, t)
		s.mu.Unlock()

		c.log.Info().Str("session", s.id).Str("title", t.Title).Str("artist", t.Artist).Msg("radio refill queued track")
		return true
	}

	c.log.Warn().Str("session", s.id).Int("attempts", c.cfg.MaxRefillAttempts).Msg("radio refill exhausted all attempts")
	return false
}

func (c *Controller) nextCandidate(ctx context.Context, cursor string) (*catalog.RadioCandidate, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RefillTimeout)
	defer cancel()
	return c.gateway.NextRadioTrack(attemptCtx, cursor)
}

func (c *Controller) commitCursor(s *Session, epoch uint64, cursor string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.epoch != epoch || !s.continuous {
		return false
	}
	s.cursor = cursor
	return true
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxSongLength <= 0 {
		cfg.MaxSongLength = 600
	}
	if cfg.MaxRefillAttempts <= 0 {
		cfg.MaxRefillAttempts = 10
	}
	if cfg.RefillTimeout <= 0 {
		cfg.RefillTimeout = 10 * time.Second
	}
	return cfg
}
