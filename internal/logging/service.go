package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("environment", cfg.Environment).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID string) zerolog.Logger {
	return base.With().Str("camera_id", cameraID).Logger()
}
