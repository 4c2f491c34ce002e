// Package command holds the bot's slash commands. Commands implement the
// transport-agnostic pkg/cmd contract; the Discord specifics (slash
// definitions, component handling, responses) live in the provider
// interfaces below, which the bot dispatcher type-asserts for.
package command

import (
	"github.com/bwmarrin/discordgo"

	"wavebot/internal/player"
	"wavebot/internal/storage"
	"wavebot/pkg/cmd"
)

// Context is the payload carried in cmd.Invocation.Data for every
// Discord invocation, slash or component.
type Context struct {
	Session    *discordgo.Session
	Event      *discordgo.InteractionCreate
	Controller *player.Controller
	Storage    *storage.Storage
}

// SlashProvider is implemented by commands that register a slash definition.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentHandler is implemented by commands that own message
// components. The dispatcher routes custom ids prefixed with the
// command's name here.
type ComponentHandler interface {
	Component(ctx *Context, customID string) error
}

// FromInvocation pulls the Discord context back out of an invocation.
func FromInvocation(inv *cmd.Invocation) (*Context, bool) {
	ctx, ok := inv.Data.(*Context)
	return ctx, ok
}

// Subcommand returns the invoked subcommand and its options, or nil.
func Subcommand(e *discordgo.InteractionCreate) *discordgo.ApplicationCommandInteractionDataOption {
	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return nil
	}
	return opts[0]
}

// OptionString reads a named string option from a subcommand.
func OptionString(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
