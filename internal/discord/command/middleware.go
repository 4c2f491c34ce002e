package command

import (
	"context"
	"time"

	"wavebot/internal/logging"
	"wavebot/pkg/cmd"
)

// GuildOnly drops invocations that arrive outside a guild (DMs have no
// voice channel to play into).
func GuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			dctx, ok := FromInvocation(inv)
			if !ok || dctx.Event.GuildID == "" {
				if ok {
					return RespondEmbedEphemeral(dctx.Session, dctx.Event,
						ErrorEmbed("This command only works in a server."))
				}
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithCommandLog logs every invocation with its guild, user and outcome.
func WithCommandLog() cmd.Middleware {
	log := logging.For("command")
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			evt := log.Info()
			if err != nil {
				evt = log.Error().Err(err)
			}
			if dctx, ok := FromInvocation(inv); ok {
				evt = evt.Str("guild", dctx.Event.GuildID)
				if dctx.Event.Member != nil && dctx.Event.Member.User != nil {
					evt = evt.Str("user", dctx.Event.Member.User.ID)
				}
			}
			evt.Str("command", c.Name()).Dur("took", time.Since(start)).Msg("command handled")
			return err
		})
	}
}
