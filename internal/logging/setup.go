package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
)

// Setup installs the global console logger at cfg.LogLevel and, when
// enabled, tees every line into the Logdy UI.
func Setup(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(console)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.LogdyEnabled {
		return
	}
	ldw, _, err := StartLogdy(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Logdy disabled")
		return
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(console, ldw))
}
