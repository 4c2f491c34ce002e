package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything wavebot reads from the environment.
// A .env file is loaded first when present; real env vars win.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	YandexToken  string `env:"YANDEX_TOKEN,required"`

	MaxQueueSize      int           `env:"MAX_QUEUE_SIZE" envDefault:"50"`
	MaxSongLength     int           `env:"MAX_SONG_LENGTH" envDefault:"600"` // seconds
	MaxRefillAttempts int           `env:"MAX_REFILL_ATTEMPTS" envDefault:"10"`
	RefillTimeout     time.Duration `env:"REFILL_TIMEOUT" envDefault:"10s"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	// ProxyURL routes catalog HTTP through a socks4:// or socks5:// proxy.
	ProxyURL string `env:"PROXY_URL"`

	// StatusAddr enables the read-only status HTTP server when non-empty,
	// e.g. ":8787".
	StatusAddr string `env:"STATUS_ADDR"`

	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// New loads the configuration or fails the process.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse environment")
	}
	return cfg
}
