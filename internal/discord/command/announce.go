package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"wavebot/pkg/cmd"
)

// AnnounceCommand configures where now-playing announcements are posted.
// Without a configured channel the bot stays quiet between interactions.
type AnnounceCommand struct{}

func (c *AnnounceCommand) Name() string        { return "announce" }
func (c *AnnounceCommand) Description() string { return "Configure now-playing announcements" }

func (c *AnnounceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "here",
				Description: "Announce tracks in this channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "off",
				Description: "Stop announcing tracks",
			},
		},
	}
}

func (c *AnnounceCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	dctx, ok := FromInvocation(inv)
	if !ok {
		return nil
	}
	sub := Subcommand(dctx.Event)
	if sub == nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Missing subcommand."))
	}

	switch sub.Name {
	case "here":
		if err := dctx.Storage.SetAnnounceChannel(dctx.Event.GuildID, dctx.Event.ChannelID); err != nil {
			return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(fmt.Sprintf("Failed to save: %v", err)))
		}
		return RespondEmbed(dctx.Session, dctx.Event,
			InfoEmbed("📣 Announcements", "Now-playing updates will land here."))
	case "off":
		if err := dctx.Storage.RemoveAnnounceChannel(dctx.Event.GuildID); err != nil {
			return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(fmt.Sprintf("Failed to save: %v", err)))
		}
		return RespondEmbed(dctx.Session, dctx.Event,
			InfoEmbed("📣 Announcements", "Announcements are off."))
	default:
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Unknown subcommand: "+sub.Name))
	}
}
