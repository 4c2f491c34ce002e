package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"wavebot/internal/player"
	"wavebot/pkg/cmd"
)

// MusicCommand is the main playback surface: search-and-queue, skip,
// pause/resume, stop and queue display, plus the control buttons on
// now-playing messages.
type MusicCommand struct{}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play and control music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Search a track and add it to the queue",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "Track name or artist",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pause",
				Description: "Pause playback",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume paused playback",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback, clear the queue and leave",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the current queue",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	dctx, ok := FromInvocation(inv)
	if !ok {
		return nil
	}
	sub := Subcommand(dctx.Event)
	if sub == nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Missing subcommand."))
	}

	switch sub.Name {
	case "play":
		return c.runPlay(ctx, dctx, OptionString(sub, "query"))
	case "skip":
		return c.runSkip(ctx, dctx)
	case "pause":
		return respondControl(dctx, dctx.Controller.Pause(dctx.Event.GuildID), "⏸ Paused.")
	case "resume":
		return respondControl(dctx, dctx.Controller.Resume(dctx.Event.GuildID), "▶️ Resumed.")
	case "stop":
		return respondControl(dctx, dctx.Controller.Stop(dctx.Event.GuildID), "⏹ Stopped, queue cleared.")
	case "queue":
		return RespondEmbed(dctx.Session, dctx.Event, QueueEmbed(dctx.Controller.QueueView(dctx.Event.GuildID)))
	default:
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Unknown subcommand: "+sub.Name))
	}
}

func (c *MusicCommand) runPlay(ctx context.Context, dctx *Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Give me something to search for."))
	}

	channelID, err := userVoiceChannel(dctx.Session, dctx.Event)
	if err != nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Join a voice channel first."))
	}

	// Search plus stream resolution can take a while.
	if err := RespondDeferred(dctx.Session, dctx.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	track, err := dctx.Controller.EnqueueSearch(ctx, dctx.Event.GuildID, channelID, query, requesterName(dctx.Event))
	if err != nil {
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(enqueueErrorText(err, query)))
	}

	return FollowupEmbedWithControls(dctx.Session, dctx.Event,
		InfoEmbed("🎵 Queued", trackLine(*track)), ControlButtons())
}

func (c *MusicCommand) runSkip(ctx context.Context, dctx *Context) error {
	// Under radio mode skip refills the queue over the network first.
	if err := RespondDeferred(dctx.Session, dctx.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}
	if err := dctx.Controller.Skip(ctx, dctx.Event.GuildID); err != nil {
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
	}
	return FollowupEmbed(dctx.Session, dctx.Event, InfoEmbed("⏭ Skipped", "On to the next one."))
}

// Component handles the buttons attached to now-playing messages.
func (c *MusicCommand) Component(dctx *Context, customID string) error {
	if err := RespondComponentAck(dctx.Session, dctx.Event); err != nil {
		return err
	}
	guildID := dctx.Event.GuildID

	switch customID {
	case "music:pause-toggle":
		err := dctx.Controller.Pause(guildID)
		if errors.Is(err, player.ErrNoTrackPlaying) {
			err = dctx.Controller.Resume(guildID)
		}
		if err != nil {
			return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
		}
		return nil
	case "music:skip":
		if err := dctx.Controller.Skip(context.Background(), guildID); err != nil {
			return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
		}
		return nil
	case "music:stop":
		if err := dctx.Controller.Stop(guildID); err != nil {
			return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
		}
		return FollowupEmbed(dctx.Session, dctx.Event, InfoEmbed("⏹ Stopped", "Queue cleared."))
	case "music:queue":
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event, QueueEmbed(dctx.Controller.QueueView(guildID)))
	default:
		return nil
	}
}

// respondControl maps a state-machine result to a one-line reply.
func respondControl(dctx *Context, err error, okText string) error {
	if err != nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
	}
	return RespondEmbed(dctx.Session, dctx.Event, InfoEmbed("🎵 Music", okText))
}

func controlErrorText(err error) string {
	switch {
	case errors.Is(err, player.ErrNoTrackPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, player.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, player.ErrSessionClosed):
		return "This session is gone; start a new one with `/music play`."
	default:
		return fmt.Sprintf("That didn't work: %v", err)
	}
}

func enqueueErrorText(err error, query string) string {
	switch {
	case errors.Is(err, player.ErrQueueFull):
		return "The queue is full; let a few tracks finish first."
	case errors.Is(err, player.ErrTrackTooLong):
		return "That track is too long to queue."
	case errors.Is(err, player.ErrUnavailable):
		return fmt.Sprintf("Nothing playable found for %q.", query)
	default:
		return fmt.Sprintf("Failed to queue %q: %v", query, err)
	}
}

// userVoiceChannel finds the invoker's current voice channel in the guild.
func userVoiceChannel(s *discordgo.Session, e *discordgo.InteractionCreate) (string, error) {
	guild, err := s.State.Guild(e.GuildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if e.Member != nil && e.Member.User != nil && vs.UserID == e.Member.User.ID {
			return vs.ChannelID, nil
		}
	}
	return "", errors.New("user not in any voice channel")
}

func requesterName(e *discordgo.InteractionCreate) string {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User.Username
	}
	return ""
}
