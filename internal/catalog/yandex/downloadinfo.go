package yandex

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"wavebot/pkg/retrylimit"
)

// signSalt is the fixed salt Yandex uses for direct-link signatures.
const signSalt = "XGRlBW9FXlekgbPrRHuSiA"

// downloadDescriptor is the XML body behind downloadInfoUrl.
type downloadDescriptor struct {
	Host string `xml:"host"`
	Path string `xml:"path"`
	TS   string `xml:"ts"`
	S    string `xml:"s"`
}

// ResolveStreamURL turns a track id into a signed direct mp3 link:
// download-info picks the best mp3 variant, its descriptor XML yields
// host/path/ts/s, and the md5 signature over salt+path+s unlocks the
// CDN URL. When the whole chain fails and a fallback resolver is
// configured, the fallback gets a shot before giving up.
func (c *Client) ResolveStreamURL(ctx context.Context, trackID string) (string, error) {
	directURL, err := c.resolveDirect(ctx, trackID)
	if err == nil && directURL != "" {
		return directURL, nil
	}
	c.log.Warn().Err(err).Str("track", trackID).Msg("direct link failed")

	if c.fallback != nil {
		title, artist, metaErr := c.trackMeta(ctx, trackID)
		if metaErr == nil {
			if u, fbErr := c.fallback.ResolveStreamURL(ctx, title, artist); fbErr == nil && u != "" {
				c.log.Info().Str("track", trackID).Msg("stream url resolved via fallback")
				return u, nil
			}
		}
	}
	if err == nil {
		err = fmt.Errorf("no stream url for track %s", trackID)
	}
	return "", err
}

func (c *Client) resolveDirect(ctx context.Context, trackID string) (string, error) {
	body, err := c.getJSON(ctx, "/tracks/"+trackID+"/download-info", nil)
	if err != nil {
		return "", fmt.Errorf("download-info: %w", err)
	}

	infos := body.Get("result")
	bestURL, bestBitrate := "", -1
	for i := 0; i < len(infos.MustArray()); i++ {
		info := infos.GetIndex(i)
		codec, _ := info.Get("codec").String()
		if codec != "mp3" {
			continue
		}
		bitrate, _ := info.Get("bitrateInKbps").Int()
		u, _ := info.Get("downloadInfoUrl").String()
		if u != "" && bitrate > bestBitrate {
			bestURL, bestBitrate = u, bitrate
		}
	}
	if bestURL == "" {
		return "", fmt.Errorf("download-info: no mp3 variant for track %s", trackID)
	}

	desc, err := c.fetchDescriptor(ctx, bestURL)
	if err != nil {
		return "", err
	}
	return buildDirectLink(desc), nil
}

// fetchDescriptor downloads the XML link descriptor. The descriptor URL
// is already signed, so it goes out as-is (no OAuth header needed).
func (c *Client) fetchDescriptor(ctx context.Context, descURL string) (*downloadDescriptor, error) {
	var desc downloadDescriptor
	err := retrylimit.WithRetryMax(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, descURL, nil)
		if err != nil {
			return &retrylimit.FatalError{Err: err}
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &apiError{path: "download descriptor", status: resp.StatusCode}
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return xml.Unmarshal(raw, &desc)
	}, c.limiter, 3)
	if err != nil {
		return nil, fmt.Errorf("download descriptor: %w", err)
	}
	if desc.Host == "" || desc.Path == "" {
		return nil, fmt.Errorf("download descriptor: incomplete response")
	}
	return &desc, nil
}

func buildDirectLink(d *downloadDescriptor) string {
	sum := md5.Sum([]byte(signSalt + d.Path[1:] + d.S))
	sign := hex.EncodeToString(sum[:])
	return fmt.Sprintf("https://%s/get-mp3/%s/%s%s", d.Host, sign, d.TS, d.Path)
}

// trackMeta fetches title and artist for the fallback resolver.
func (c *Client) trackMeta(ctx context.Context, trackID string) (title, artist string, err error) {
	body, err := c.getJSON(ctx, "/tracks/"+trackID, nil)
	if err != nil {
		return "", "", err
	}
	t, ok := parseTrack(body.Get("result").GetIndex(0))
	if !ok {
		return "", "", fmt.Errorf("track %s: no metadata", trackID)
	}
	return t.Title, t.Artist, nil
}
