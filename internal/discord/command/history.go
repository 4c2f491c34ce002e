package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"wavebot/pkg/cmd"
)

// HistoryCommand shows the guild's recently played tracks.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Recently played tracks" }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HistoryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	dctx, ok := FromInvocation(inv)
	if !ok {
		return nil
	}

	history, err := dctx.Storage.PlayHistory(dctx.Event.GuildID)
	if err != nil {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event, ErrorEmbed(fmt.Sprintf("Failed to load history: %v", err)))
	}
	if len(history) == 0 {
		return RespondEmbedEphemeral(dctx.Session, dctx.Event,
			InfoEmbed("📜 History", "Nothing played here yet."))
	}

	var b strings.Builder
	// newest first
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		fmt.Fprintf(&b, "`%s` **%s** — %s", h.PlayedAt.Format("15:04"), h.Artist, h.Title)
		if h.RequestedBy != "" {
			fmt.Fprintf(&b, " _(%s)_", h.RequestedBy)
		}
		b.WriteByte('\n')
	}
	return RespondEmbed(dctx.Session, dctx.Event, InfoEmbed("📜 History", b.String()))
}
