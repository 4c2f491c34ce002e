package player

import "errors"

var (
	// ErrQueueFull rejects an enqueue once the queue holds MaxQueueSize tracks.
	ErrQueueFull = errors.New("queue is full")
	// ErrTrackTooLong rejects tracks longer than MaxSongLength.
	ErrTrackTooLong = errors.New("track is too long")
	// ErrNoTrackPlaying is returned by skip/pause when nothing is playing.
	ErrNoTrackPlaying = errors.New("no track is currently playing")
	// ErrNotPaused is returned by resume when playback is not paused.
	ErrNotPaused = errors.New("playback is not paused")
	// ErrSessionClosed means the session was removed mid-operation; the
	// caller may retry, which recreates a fresh session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrUnavailable wraps catalog and voice failures: nothing found,
	// nothing resolvable, or the backend did not answer.
	ErrUnavailable = errors.New("catalog unavailable")
)
