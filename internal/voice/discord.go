package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"wavebot/internal/logging"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"layeh.com/gopus"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// DiscordConnector joins guild voice channels over an open discordgo session.
type DiscordConnector struct {
	dg  *discordgo.Session
	log zerolog.Logger
}

// NewConnector returns a Connector backed by dg.
func NewConnector(dg *discordgo.Session) *DiscordConnector {
	return &DiscordConnector{dg: dg, log: logging.For("voice")}
}

// Connect joins the channel (muted listen, unmuted send) and wraps the
// connection in a Sink.
func (c *DiscordConnector) Connect(guildID, channelID string) (Sink, error) {
	vc, err := c.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	c.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return &discordSink{vc: vc, log: c.log}, nil
}

// discordSink streams one track at a time: ffmpeg decodes the URL to
// s16le PCM, the pump goroutine opus-encodes 20ms frames into OpusSend.
type discordSink struct {
	mu       sync.Mutex
	vc       *discordgo.VoiceConnection
	stop     chan struct{}
	stopOnce *sync.Once
	playing  bool
	paused   bool
	log      zerolog.Logger
}

func (s *discordSink) Play(url string, onFinished func(err error)) error {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return errors.New("sink is already playing")
	}

	reader, cleanup, err := openFFmpeg(url)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	stop := make(chan struct{})
	s.stop = stop
	s.stopOnce = &sync.Once{}
	s.playing = true
	s.paused = false
	vc := s.vc
	s.mu.Unlock()

	go s.pump(vc, reader, cleanup, stop, onFinished)
	return nil
}

// pump reads PCM until EOF, stop, or a stream error, then reports the
// outcome exactly once. Stop and natural end both count as clean.
func (s *discordSink) pump(vc *discordgo.VoiceConnection, reader io.ReadCloser, cleanup func(), stop <-chan struct{}, onFinished func(err error)) {
	var result error

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		result = fmt.Errorf("encoder error: %w", err)
	} else {
		result = s.stream(vc, reader, encoder, stop)
	}

	reader.Close()
	if cleanup != nil {
		cleanup()
	}

	s.mu.Lock()
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if onFinished != nil {
		onFinished(result)
	}
}

func (s *discordSink) stream(vc *discordgo.VoiceConnection, reader io.Reader, encoder *gopus.Encoder, stop <-chan struct{}) error {
	_ = vc.Speaking(true)
	defer func() { _ = vc.Speaking(false) }()

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if s.isPaused() {
			time.Sleep(20 * time.Millisecond)
			continue
		}

		if _, err := io.ReadFull(reader, pcmBuf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil // natural end of track
			}
			return fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case vc.OpusSend <- opus:
		case <-stop:
			return nil
		}
	}
}

func (s *discordSink) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *discordSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return errors.New("nothing is playing")
	}
	s.paused = true
	return nil
}

func (s *discordSink) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return errors.New("nothing is playing")
	}
	s.paused = false
	return nil
}

func (s *discordSink) Stop() {
	s.mu.Lock()
	once, stop := s.stopOnce, s.stop
	s.mu.Unlock()
	if once != nil {
		once.Do(func() { close(stop) })
	}
}

func (s *discordSink) Disconnect() error {
	s.Stop()
	return s.vc.Disconnect()
}

func (s *discordSink) ChannelID() string {
	return s.vc.ChannelID
}

func (s *discordSink) Move(channelID string) error {
	if err := s.vc.ChangeChannel(channelID, false, true); err != nil {
		return fmt.Errorf("failed to move voice channel: %w", err)
	}
	return nil
}

// openFFmpeg decodes url into raw s16le PCM on stdout. The reconnect
// flags ride out short stream hiccups on signed CDN links.
func openFFmpeg(url string) (io.ReadCloser, func(), error) {
	cmd := exec.Command("ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("command start error: %w", err)
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return reader, cleanup, nil
}
