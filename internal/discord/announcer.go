package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"wavebot/internal/discord/command"
	"wavebot/internal/logging"
	"wavebot/internal/player"
	"wavebot/internal/storage"
)

// Announcer turns playback transitions into channel messages and
// history records. Session ids are guild ids throughout the bot.
type Announcer struct {
	dg      *discordgo.Session
	storage *storage.Storage
	log     zerolog.Logger
}

func NewAnnouncer(dg *discordgo.Session, st *storage.Storage) *Announcer {
	return &Announcer{dg: dg, storage: st, log: logging.For("announcer")}
}

// Events adapts the announcer to the playback core's callback surface.
func (a *Announcer) Events() player.Events {
	return player.Events{
		NowPlaying:    a.nowPlaying,
		PlaybackError: a.playbackError,
	}
}

func (a *Announcer) nowPlaying(guildID string, t player.Track) {
	if err := a.storage.AppendPlayedTrack(guildID, storage.PlayedTrack{
		TrackID:     t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		RequestedBy: t.Requester,
		PlayedAt:    time.Now(),
	}); err != nil {
		a.log.Warn().Err(err).Str("guild", guildID).Msg("failed to record history")
	}

	channelID, err := a.storage.AnnounceChannel(guildID)
	if err != nil || channelID == "" {
		return
	}
	if _, err := a.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{command.NowPlayingEmbed(t, false)},
		Components: command.ControlButtons(),
	}); err != nil {
		a.log.Warn().Err(err).Str("guild", guildID).Msg("announce failed")
	}
}

func (a *Announcer) playbackError(guildID string, t player.Track, playErr error) {
	a.log.Error().Err(playErr).Str("guild", guildID).Str("track", t.ID).Msg("playback failed")

	channelID, err := a.storage.AnnounceChannel(guildID)
	if err != nil || channelID == "" {
		return
	}
	embed := command.ErrorEmbed(fmt.Sprintf("**%s — %s** failed to play, moving on.", t.Artist, t.Title))
	if _, err := a.dg.ChannelMessageSendEmbed(channelID, embed); err != nil {
		a.log.Warn().Err(err).Str("guild", guildID).Msg("announce failed")
	}
}
