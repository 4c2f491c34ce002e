package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"wavebot/internal/catalog/fallback"
	"wavebot/internal/catalog/yandex"
	"wavebot/internal/config"
	"wavebot/internal/discord"
	"wavebot/internal/logging"
	"wavebot/internal/player"
	"wavebot/internal/storage"
	"wavebot/internal/version"
	"wavebot/internal/voice"
	"wavebot/internal/web"
	"wavebot/pkg/jobmgr"
)

func main() {
	cfg := config.New()
	logging.Setup(cfg.LogLevel, cfg.LogFile)
	log.Info().Str("version", version.Version).Msgf("starting %s", version.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	catalogOpts := []yandex.Option{yandex.WithFallback(fallback.NewYouTube())}
	if cfg.ProxyURL != "" {
		catalogOpts = append(catalogOpts, yandex.WithProxy(cfg.ProxyURL))
	}
	gateway := yandex.New(cfg.YandexToken, catalogOpts...)

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Discord session")
	}

	controller := player.NewController(
		player.NewRegistry(),
		gateway,
		voice.NewConnector(dg),
		player.Config{
			MaxQueueSize:      cfg.MaxQueueSize,
			MaxSongLength:     cfg.MaxSongLength,
			MaxRefillAttempts: cfg.MaxRefillAttempts,
			RefillTimeout:     cfg.RefillTimeout,
		},
		discord.NewAnnouncer(dg, store).Events(),
	)

	jobs := jobmgr.NewManager(func(msg string) {
		log.Debug().Str("job", msg).Msg("job status")
	})

	if cfg.StatusAddr != "" {
		srv := web.NewServer(controller)
		if err := jobs.StartAsync("status-server", func(ctx context.Context) error {
			return srv.Run(ctx, cfg.StatusAddr)
		}); err != nil {
			log.Warn().Err(err).Msg("status server not started")
		}
	}

	bot := discord.New(dg, cfg, store, controller, jobs)

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("bot exited with error")
		}
		cancel()
	}

	log.Info().Msg("bye")
}
