// Package discord wires the playback core to Discord: session setup,
// slash command registration, interaction dispatch and now-playing
// announcements.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"wavebot/internal/config"
	"wavebot/internal/discord/command"
	"wavebot/internal/logging"
	"wavebot/internal/player"
	"wavebot/internal/storage"
	"wavebot/pkg/cmd"
	"wavebot/pkg/jobmgr"
)

// Bot is the Discord front end.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	storage    *storage.Storage
	controller *player.Controller
	commands   *cmd.Registry
	jobs       *jobmgr.Manager
	log        zerolog.Logger
}

// New prepares a bot over an open config. The controller is built by the
// caller (it needs the session's voice connector, see cmd/discord).
func New(dg *discordgo.Session, cfg *config.Config, st *storage.Storage, ctrl *player.Controller, jobs *jobmgr.Manager) *Bot {
	b := &Bot{
		dg:         dg,
		cfg:        cfg,
		storage:    st,
		controller: ctrl,
		commands:   cmd.NewRegistry(),
		jobs:       jobs,
		log:        logging.For("discord"),
	}
	b.registerCommandSet()
	return b
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing sessions")
	for _, id := range b.controller.Registry().IDs() {
		if err := b.controller.Stop(id); err != nil {
			b.log.Warn().Err(err).Str("guild", id).Msg("failed to stop session")
		}
	}
	return nil
}

// registerCommandSet builds the command registry with shared middleware.
func (b *Bot) registerCommandSet() {
	for _, c := range []cmd.Command{
		&command.MusicCommand{},
		&command.WaveCommand{},
		&command.LibraryCommand{},
		&command.HistoryCommand{},
		&command.AnnounceCommand{},
	} {
		b.commands.Register(cmd.Apply(c,
			command.GuildOnly(),
			command.WithCommandLog(),
		))
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")

	for _, g := range r.Guilds {
		if err := b.registerSlashCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild", g.ID).Msg("slash registration failed")
		}
	}

	if err := b.jobs.StartAsync("presence", b.rotatePresence); err != nil {
		b.log.Warn().Err(err).Msg("presence job not started")
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("joined guild")
	if err := b.registerSlashCommands(g.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.ID).Msg("slash registration failed")
	}
}

// registerSlashCommands overwrites the guild's command set with ours.
func (b *Bot) registerSlashCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	var defs []*discordgo.ApplicationCommand
	for _, c := range b.commands.GetAll() {
		if sp, ok := cmd.Root(c).(command.SlashProvider); ok {
			defs = append(defs, sp.SlashDefinition())
		}
	}
	_, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, defs)
	return err
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	dctx := &command.Context{
		Session:    s,
		Event:      i,
		Controller: b.controller,
		Storage:    b.storage,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := b.commands.Get(name)
		if c == nil {
			b.log.Warn().Str("command", name).Msg("unknown command")
			return
		}
		if err := c.Run(context.Background(), &cmd.Invocation{Data: dctx}); err != nil {
			b.log.Error().Err(err).Str("command", name).Msg("command failed")
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		name, _, _ := strings.Cut(customID, ":")
		c := b.commands.Get(name)
		if c == nil {
			b.log.Warn().Str("custom_id", customID).Msg("no command for component")
			return
		}
		ch, ok := cmd.Root(c).(command.ComponentHandler)
		if !ok {
			b.log.Warn().Str("command", name).Msg("command has no component handler")
			return
		}
		if err := ch.Component(dctx, customID); err != nil {
			b.log.Error().Err(err).Str("custom_id", customID).Msg("component failed")
		}
	}
}

// onVoiceStateUpdate tears the session down when the bot gets kicked
// out of its voice channel.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID != s.State.User.ID {
		return
	}
	if v.ChannelID == "" && v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		b.log.Info().Str("guild", v.GuildID).Msg("removed from voice channel, stopping session")
		if err := b.controller.Stop(v.GuildID); err != nil {
			b.log.Warn().Err(err).Str("guild", v.GuildID).Msg("failed to stop session")
		}
	}
}

// rotatePresence cycles the status line, folding in how many guilds
// are currently listening.
func (b *Bot) rotatePresence(ctx context.Context) error {
	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		lines := []string{"🌊 /wave", "🎵 /music play", "📜 /history"}
		if n := len(b.controller.Registry().IDs()); n > 0 {
			lines = append(lines, fmt.Sprintf("🎧 %d guilds listening", n))
		}
		if err := b.dg.UpdateCustomStatus(lines[i%len(lines)]); err != nil {
			b.log.Debug().Err(err).Msg("presence update failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
