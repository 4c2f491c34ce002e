package command

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"wavebot/internal/player"
)

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func trackLine(t player.Track) string {
	return fmt.Sprintf("**%s** — %s `%s`", t.Artist, t.Title, formatDuration(t.Duration))
}

// NowPlayingEmbed renders the currently playing track with its cover.
func NowPlayingEmbed(t player.Track, continuous bool) *discordgo.MessageEmbed {
	title := "▶️ Now Playing"
	if continuous {
		title = "🌊 Now Playing (my wave)"
	}
	e := embed.NewEmbed().
		SetTitle(title).
		SetDescription(trackLine(t)).
		SetColor(EmbedColor)
	if t.CoverURL != "" {
		e = e.SetThumbnail(t.CoverURL)
	}
	if t.Requester != "" {
		e = e.SetFooter("requested by " + t.Requester)
	}
	return e.MessageEmbed
}

// QueueEmbed renders the queue snapshot, current track first.
func QueueEmbed(view player.QueueView) *discordgo.MessageEmbed {
	var b strings.Builder
	if view.NowPlaying != nil {
		fmt.Fprintf(&b, "▶️ %s\n\n", trackLine(*view.NowPlaying))
	}
	if len(view.Queue) == 0 {
		b.WriteString("*Queue is empty.*")
	}
	for i, t := range view.Queue {
		fmt.Fprintf(&b, "`%2d.` %s\n", i+1, trackLine(t))
	}
	if view.Continuous {
		b.WriteString("\n🌊 My wave is on; the queue refills itself.")
	}
	return embed.NewEmbed().
		SetTitle("🎧 Queue").
		SetDescription(b.String()).
		SetColor(EmbedColor).
		MessageEmbed
}

// ControlButtons is the action row under now-playing messages. Custom
// ids are prefixed with the music command name so the dispatcher routes
// presses back to it.
func ControlButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "⏯ Pause",
					Style:    discordgo.SecondaryButton,
					CustomID: "music:pause-toggle",
				},
				discordgo.Button{
					Label:    "⏭ Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: "music:skip",
				},
				discordgo.Button{
					Label:    "⏹ Stop",
					Style:    discordgo.DangerButton,
					CustomID: "music:stop",
				},
				discordgo.Button{
					Label:    "📜 Queue",
					Style:    discordgo.SecondaryButton,
					CustomID: "music:queue",
				},
			},
		},
	}
}
