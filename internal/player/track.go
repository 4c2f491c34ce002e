package player

import "wavebot/internal/catalog"

// Track is a playable queue entry. Unlike catalog metadata it always
// carries a resolved StreamURL; nothing without one reaches the queue.
type Track struct {
	ID        string
	Title     string
	Artist    string
	Duration  int // seconds
	StreamURL string
	CoverURL  string
	Requester string // user id of whoever queued it; empty for radio picks
}

func fromCatalog(md catalog.Track, streamURL, requester string) Track {
	return Track{
		ID:        md.ID,
		Title:     md.Title,
		Artist:    md.Artist,
		Duration:  md.Duration,
		StreamURL: streamURL,
		CoverURL:  md.CoverURL,
		Requester: requester,
	}
}
