package command

import (
	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

// EmbedColor is the accent used on every bot embed.
const EmbedColor = 0xffcc00

// InfoEmbed builds a standard titled embed.
func InfoEmbed(title, description string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle(title).
		SetDescription(description).
		SetColor(EmbedColor).
		MessageEmbed
}

// ErrorEmbed builds the red variant for failures.
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle("⚠️ Error").
		SetDescription(description).
		SetColor(0xcc3333).
		MessageEmbed
}

// RespondEmbed sends a public embed response to an interaction.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{e}},
	})
}

// RespondEmbedEphemeral sends an embed only the invoker sees.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{e},
		},
	})
}

// RespondDeferred acknowledges an interaction so a slow handler can
// follow up later.
func RespondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// FollowupEmbed sends a public embed followup after a deferred response.
func FollowupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{e},
	})
	return err
}

// FollowupEmbedEphemeral sends an embed followup only the invoker sees.
func FollowupEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{e},
	})
	return err
}

// FollowupEmbedWithControls attaches the playback control buttons to a
// public followup.
func FollowupEmbedWithControls(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed, rows []discordgo.MessageComponent) error {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{e},
		Components: rows,
	})
	return err
}

// RespondComponentAck acknowledges a button press by updating nothing;
// the handler sends its feedback as a followup.
func RespondComponentAck(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}
