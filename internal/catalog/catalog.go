// Package catalog defines the contract the playback core depends on for
// track search, stream URL resolution, and the "my wave" radio feed. The
// Yandex Music adapter lives in catalog/yandex; the core never sees it.
package catalog

import "context"

// Track is catalog metadata. StreamURL is resolved separately because
// direct links are signed and short-lived.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Duration int // seconds
	CoverURL string
}

// RadioCandidate is one step of the radio feed. NextCursor, when
// non-empty, must be passed back to continue the stream without
// repetition. A candidate may arrive without an ID.
type RadioCandidate struct {
	Track      Track
	NextCursor string
}

// Gateway is the catalog backend. All calls are fallible and may be
// slow; callers bound them with ctx. NextRadioTrack returns (nil, nil)
// when the feed has nothing more to offer.
type Gateway interface {
	Search(ctx context.Context, query string, limit int) ([]Track, error)
	ResolveStreamURL(ctx context.Context, trackID string) (string, error)
	NextRadioTrack(ctx context.Context, cursor string) (*RadioCandidate, error)
	PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]Track, error)
	AlbumTracks(ctx context.Context, albumID string, limit int) ([]Track, error)
	LikedTracks(ctx context.Context, limit int) ([]Track, error)
}
