// Package voice abstracts the connected audio output of one guild
// session. The playback core drives the Sink interface; the discordgo
// implementation below streams ffmpeg-decoded PCM as opus.
package voice

// Sink is one connected audio output. Play is asynchronous: it returns
// once streaming has started and fires onFinished exactly once when the
// track ends — nil for natural end or an explicit Stop, non-nil for a
// mid-stream failure. Callbacks run on the sink's own goroutine; callers
// must re-enter their own locking before touching shared state.
type Sink interface {
	Play(url string, onFinished func(err error)) error
	Pause() error
	Resume() error
	// Stop ends the current track, if any. It does not disconnect.
	Stop()
	Disconnect() error
	ChannelID() string
	Move(channelID string) error
}

// Connector joins a voice channel and hands back a Sink for it.
type Connector interface {
	Connect(guildID, channelID string) (Sink, error)
}
