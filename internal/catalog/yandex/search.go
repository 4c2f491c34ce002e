package yandex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"wavebot/internal/catalog"

	simplejson "github.com/bitly/go-simplejson"
)

// Search finds tracks matching query, best match first. Metadata only;
// stream URLs are resolved separately.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]catalog.Track, error) {
	q := url.Values{}
	q.Set("text", query)
	q.Set("type", "track")
	q.Set("page", "0")
	q.Set("nocorrect", "false")

	body, err := c.getJSON(ctx, "/search", q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := body.GetPath("result", "tracks", "results")
	tracks := parseTrackList(results, limit)
	c.log.Debug().Str("query", query).Int("found", len(tracks)).Msg("search done")
	return tracks, nil
}

// parseTrack maps one API track object to catalog metadata. Tracks
// without an id are kept (the caller decides), tracks without a title
// are dropped as garbage entries.
func parseTrack(j *simplejson.Json) (catalog.Track, bool) {
	title, _ := j.Get("title").String()
	if title == "" {
		return catalog.Track{}, false
	}

	t := catalog.Track{
		ID:    stringOrInt(j.Get("id")),
		Title: title,
	}

	var names []string
	for i := 0; i < len(j.Get("artists").MustArray()); i++ {
		if name, _ := j.Get("artists").GetIndex(i).Get("name").String(); name != "" {
			names = append(names, name)
		}
	}
	t.Artist = strings.Join(names, ", ")
	if t.Artist == "" {
		t.Artist = "Unknown Artist"
	}

	if ms, err := j.Get("durationMs").Int(); err == nil {
		t.Duration = ms / 1000
	}

	if cover, _ := j.Get("coverUri").String(); cover != "" {
		t.CoverURL = "https://" + strings.Replace(cover, "%%", "200x200", 1)
	}
	return t, true
}

func parseTrackList(results *simplejson.Json, limit int) []catalog.Track {
	var tracks []catalog.Track
	for i := 0; i < len(results.MustArray()); i++ {
		if limit > 0 && len(tracks) >= limit {
			break
		}
		if t, ok := parseTrack(results.GetIndex(i)); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// stringOrInt reads an id that the API serves as either type.
func stringOrInt(j *simplejson.Json) string {
	if s, err := j.String(); err == nil {
		return s
	}
	if n, err := j.Int64(); err == nil {
		return fmt.Sprint(n)
	}
	return ""
}
