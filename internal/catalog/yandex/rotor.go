package yandex

import (
	"context"
	"fmt"
	"net/url"

	"wavebot/internal/catalog"
)

// waveStation is the personal endless-radio rotor station.
const waveStation = "user:onyourwave"

// NextRadioTrack pulls the next track from the personal wave. The
// cursor is the rotor batch id; passing the previous batch id back
// keeps the feed moving instead of re-serving the same batch. A nil
// candidate with nil error means the rotor has dried up.
func (c *Client) NextRadioTrack(ctx context.Context, cursor string) (*catalog.RadioCandidate, error) {
	q := url.Values{}
	q.Set("settings2", "true")
	if cursor != "" {
		q.Set("queue", cursor)
	}

	body, err := c.getJSON(ctx, "/rotor/station/"+waveStation+"/tracks", q)
	if err != nil {
		return nil, fmt.Errorf("rotor: %w", err)
	}

	sequence := body.GetPath("result", "sequence")
	if len(sequence.MustArray()) == 0 {
		c.log.Debug().Msg("rotor sequence empty")
		return nil, nil
	}

	batchID, _ := body.GetPath("result", "batchId").String()
	track, _ := parseTrack(sequence.GetIndex(0).Get("track"))
	return &catalog.RadioCandidate{Track: track, NextCursor: batchID}, nil
}
