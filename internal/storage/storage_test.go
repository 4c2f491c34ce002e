package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPlayHistoryAppendAndTrim(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < playHistoryLimit+5; i++ {
		err := s.AppendPlayedTrack("guild-1", PlayedTrack{
			TrackID:  string(rune('a' + i)),
			Title:    "Track",
			PlayedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	history, err := s.PlayHistory("guild-1")
	require.NoError(t, err)
	require.Len(t, history, playHistoryLimit)
	// oldest entries dropped, newest kept
	assert.Equal(t, string(rune('a'+5)), history[0].TrackID)
	assert.Equal(t, string(rune('a'+playHistoryLimit+4)), history[len(history)-1].TrackID)
}

func TestHistoryIsolatedPerGuild(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AppendPlayedTrack("guild-1", PlayedTrack{TrackID: "1", Title: "One"}))

	history, err := s.PlayHistory("guild-2")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnnounceChannelRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	ch, err := s.AnnounceChannel("guild-1")
	require.NoError(t, err)
	assert.Empty(t, ch)

	require.NoError(t, s.SetAnnounceChannel("guild-1", "chan-9"))
	ch, err = s.AnnounceChannel("guild-1")
	require.NoError(t, err)
	assert.Equal(t, "chan-9", ch)

	require.NoError(t, s.RemoveAnnounceChannel("guild-1"))
	ch, err = s.AnnounceChannel("guild-1")
	require.NoError(t, err)
	assert.Empty(t, ch)
}

func TestHistorySurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendPlayedTrack("guild-1", PlayedTrack{TrackID: "7", Title: "Seven", Artist: "A"}))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	history, err := reopened.PlayHistory("guild-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Seven", history[0].Title)
}
