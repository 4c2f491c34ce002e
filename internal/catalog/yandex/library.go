package yandex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"wavebot/internal/catalog"
)

// PlaylistTracks lists a playlist's tracks. The id is either
// "owner:kind" or a bare kind, in which case the playlist is looked up
// under the token's own account.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]catalog.Track, error) {
	owner, kind, ok := strings.Cut(playlistID, ":")
	if !ok {
		uid, err := c.userID(ctx)
		if err != nil {
			return nil, err
		}
		owner, kind = uid, playlistID
	}

	body, err := c.getJSON(ctx, "/users/"+owner+"/playlists/"+kind, nil)
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
	}

	items := body.GetPath("result", "tracks")
	var tracks []catalog.Track
	for i := 0; i < len(items.MustArray()); i++ {
		if limit > 0 && len(tracks) >= limit {
			break
		}
		if t, ok := parseTrack(items.GetIndex(i).Get("track")); ok {
			tracks = append(tracks, t)
		}
	}
	c.log.Debug().Str("playlist", playlistID).Int("tracks", len(tracks)).Msg("playlist loaded")
	return tracks, nil
}

// AlbumTracks lists an album's tracks across all volumes, in order.
func (c *Client) AlbumTracks(ctx context.Context, albumID string, limit int) ([]catalog.Track, error) {
	body, err := c.getJSON(ctx, "/albums/"+albumID+"/with-tracks", nil)
	if err != nil {
		return nil, fmt.Errorf("album %s: %w", albumID, err)
	}

	volumes := body.GetPath("result", "volumes")
	var tracks []catalog.Track
	for v := 0; v < len(volumes.MustArray()); v++ {
		volume := volumes.GetIndex(v)
		for i := 0; i < len(volume.MustArray()); i++ {
			if limit > 0 && len(tracks) >= limit {
				return tracks, nil
			}
			if t, ok := parseTrack(volume.GetIndex(i)); ok {
				tracks = append(tracks, t)
			}
		}
	}
	c.log.Debug().Str("album", albumID).Int("tracks", len(tracks)).Msg("album loaded")
	return tracks, nil
}

// LikedTracks lists the account's liked tracks, newest first. The likes
// endpoint only yields ids, so a bulk metadata lookup follows.
func (c *Client) LikedTracks(ctx context.Context, limit int) ([]catalog.Track, error) {
	uid, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.getJSON(ctx, "/users/"+uid+"/likes/tracks", nil)
	if err != nil {
		return nil, fmt.Errorf("liked tracks: %w", err)
	}

	items := body.GetPath("result", "library", "tracks")
	var ids []string
	for i := 0; i < len(items.MustArray()); i++ {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if id := stringOrInt(items.GetIndex(i).Get("id")); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("track-ids", strings.Join(ids, ","))
	full, err := c.getJSON(ctx, "/tracks", q)
	if err != nil {
		return nil, fmt.Errorf("liked tracks lookup: %w", err)
	}
	tracks := parseTrackList(full.Get("result"), limit)
	c.log.Debug().Int("tracks", len(tracks)).Msg("liked tracks loaded")
	return tracks, nil
}
