package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"wavebot/pkg/cmd"
)

// LibraryCommand queues whole collections from the linked account:
// playlists, albums and the liked-tracks list.
type LibraryCommand struct{}

func (c *LibraryCommand) Name() string        { return "library" }
func (c *LibraryCommand) Description() string { return "Queue playlists, albums and likes" }

func (c *LibraryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "playlist",
				Description: "Queue a playlist",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "id",
						Description: "Playlist id, or owner:kind for someone else's",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "album",
				Description: "Queue an album",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "id",
						Description: "Album id",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "liked",
				Description: "Queue your liked tracks",
			},
		},
	}
}

func (c *LibraryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	dctx, ok := FromInvocation(inv)
	if !ok {
		return nil
	}
	sub := Subcommand(dctx.Event)
	if sub == nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Missing subcommand."))
	}

	channelID, err := userVoiceChannel(dctx.Session, dctx.Event)
	if err != nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Join a voice channel first."))
	}

	// Batch resolution does one stream-url lookup per track.
	if err := RespondDeferred(dctx.Session, dctx.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	guildID := dctx.Event.GuildID
	requester := requesterName(dctx.Event)

	var added, skipped int
	var what string
	switch sub.Name {
	case "playlist":
		what = "playlist"
		added, skipped, err = dctx.Controller.EnqueuePlaylist(ctx, guildID, channelID, OptionString(sub, "id"), requester)
	case "album":
		what = "album"
		added, skipped, err = dctx.Controller.EnqueueAlbum(ctx, guildID, channelID, OptionString(sub, "id"), requester)
	case "liked":
		what = "liked tracks"
		added, skipped, err = dctx.Controller.EnqueueLiked(ctx, guildID, channelID, requester)
	default:
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Unknown subcommand: "+sub.Name))
	}

	if err != nil {
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event,
			ErrorEmbed(fmt.Sprintf("Failed to queue %s: %v", what, err)))
	}

	desc := fmt.Sprintf("Added **%d** tracks from %s.", added, what)
	if skipped > 0 {
		desc += fmt.Sprintf(" Skipped %d (too long, unavailable, or queue full).", skipped)
	}
	return FollowupEmbedWithControls(dctx.Session, dctx.Event,
		InfoEmbed("🎵 Queued", desc), ControlButtons())
}
