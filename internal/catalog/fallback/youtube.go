// Package fallback resolves stream URLs through YouTube when the
// primary catalog cannot produce a direct link. It scrapes the search
// results page for the first video id, then asks YouTube for an audio
// format URL.
package fallback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"wavebot/internal/logging"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

var videoIDPattern = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)

// YouTube resolves "artist - title" queries to playable audio URLs.
type YouTube struct {
	searchBaseURL string
	http          *http.Client
	yt            *youtube.Client
	log           zerolog.Logger
}

// Option tweaks a YouTube resolver.
type Option func(*YouTube)

// WithSearchBaseURL overrides the search host (tests).
func WithSearchBaseURL(u string) Option {
	return func(y *YouTube) { y.searchBaseURL = u }
}

func NewYouTube(opts ...Option) *YouTube {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	y := &YouTube{
		searchBaseURL: "https://www.youtube.com",
		http:          httpClient,
		yt:            &youtube.Client{HTTPClient: httpClient},
		log:           logging.For("yt-fallback"),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// ResolveStreamURL finds the first search hit for the track and returns
// the URL of its best audio format.
func (y *YouTube) ResolveStreamURL(ctx context.Context, title, artist string) (string, error) {
	query := artist + " - " + title
	videoID, err := y.searchFirstVideoID(ctx, query)
	if err != nil {
		return "", fmt.Errorf("youtube search %q: %w", query, err)
	}

	video, err := y.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("youtube video %s: %w", videoID, err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", fmt.Errorf("youtube video %s: no audio formats", videoID)
	}
	formats.Sort()

	streamURL, err := y.yt.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return "", fmt.Errorf("youtube stream url: %w", err)
	}
	y.log.Debug().Str("query", query).Str("video", videoID).Msg("fallback stream resolved")
	return streamURL, nil
}

// searchFirstVideoID scrapes the results page; YouTube has no free
// search API, but the initial-data blob always carries watch URLs.
func (y *YouTube) searchFirstVideoID(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", y.searchBaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := y.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	matches := videoIDPattern.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return "", fmt.Errorf("no video in results")
	}
	return matches[1], nil
}
