package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"wavebot/pkg/cmd"
)

// WaveCommand toggles continuous radio mode: with the wave on, the
// queue refills itself from the personal station whenever it runs dry.
type WaveCommand struct{}

func (c *WaveCommand) Name() string        { return "wave" }
func (c *WaveCommand) Description() string { return "Endless personal radio" }

func (c *WaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "on",
				Description: "Start my wave in your voice channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "off",
				Description: "Stop auto-refilling; the queue keeps playing out",
			},
		},
	}
}

func (c *WaveCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	dctx, ok := FromInvocation(inv)
	if !ok {
		return nil
	}
	sub := Subcommand(dctx.Event)
	if sub == nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Missing subcommand."))
	}

	switch sub.Name {
	case "on":
		return c.runOn(ctx, dctx)
	case "off":
		if err := dctx.Controller.DisableRadio(dctx.Event.GuildID); err != nil {
			return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
		}
		return RespondEmbed(dctx.Session, dctx.Event,
			InfoEmbed("🌊 My Wave", "Wave is off. Queued tracks will still play out."))
	default:
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Unknown subcommand: "+sub.Name))
	}
}

func (c *WaveCommand) runOn(ctx context.Context, dctx *Context) error {
	channelID, err := userVoiceChannel(dctx.Session, dctx.Event)
	if err != nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed("Join a voice channel first."))
	}

	// Enabling on an empty queue fetches a rotor batch before playback starts.
	if err := RespondDeferred(dctx.Session, dctx.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	if err := dctx.Controller.EnableRadio(ctx, dctx.Event.GuildID, channelID); err != nil {
		return FollowupEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(controlErrorText(err)))
	}
	return FollowupEmbedWithControls(dctx.Session, dctx.Event,
		InfoEmbed("🌊 My Wave", "Riding your wave. Tracks will keep coming."), ControlButtons())
}
