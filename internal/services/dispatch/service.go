package dispatch

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/alerts"
)

// Extractor cuts a clip around an event
type Extractor interface {
	Extract(ctx context.Context, sourcePath string, center, lead, tail float64) (string, error)
}

// Archiver stores a clip and returns its public URL
type Archiver interface {
	Upload(ctx context.Context, path string) (string, error)
}

// AlertSender delivers one alert document
type AlertSender interface {
	Send(ctx context.Context, doc models.AlertDocument) (int, error)
}

// Options holds the clip window and the optional outcome subject
type Options struct {
	LeadSeconds      float64
	TailSeconds      float64
	OutcomeSubject   string
	OutcomePublisher models.MessagePublisher
}

// Service turns one accepted event into a delivered (or failed) alert.
// It keeps no per-dispatch state, so concurrent Dispatch calls are independent.
type Service struct {
	extractor Extractor
	archiver  Archiver
	sender    AlertSender
	opts      Options
	now       func() time.Time
}

func NewService(extractor Extractor, archiver Archiver, sender AlertSender, opts Options) *Service {
	return &Service{
		extractor: extractor,
		archiver:  archiver,
		sender:    sender,
		opts:      opts,
		now:       time.Now,
	}
}

// Dispatch runs extract, upload and POST in order and stops at the first
// failure. Nothing is retried or rolled back.
func (s *Service) Dispatch(ctx context.Context, event models.AccidentEvent, sourcePath string, meta models.RunMetadata) models.DispatchResult {
	logger := log.With().
		Str("camera_id", meta.CameraID).
		Float64("time_seconds", event.TimeSeconds).
		Float64("confidence", event.Confidence).
		Logger()

	result := s.dispatch(ctx, event, sourcePath, meta, logger)
	s.publish(result, logger)
	return result
}

func (s *Service) dispatch(ctx context.Context, event models.AccidentEvent, sourcePath string, meta models.RunMetadata, logger zerolog.Logger) models.DispatchResult {
	result := models.DispatchResult{Event: event, CameraID: meta.CameraID}

	clipPath, err := s.extractor.Extract(ctx, sourcePath, event.TimeSeconds, s.opts.LeadSeconds, s.opts.TailSeconds)
	if err != nil {
		logger.Error().Err(err).Str("source", sourcePath).Msg("Clip extraction failed")
		result.Outcome = models.DispatchExtractionFailed
		result.Err = err
		return result
	}

	videoURL, err := s.archiver.Upload(ctx, clipPath)
	if err != nil {
		logger.Error().Err(err).Str("clip", clipPath).Msg("Clip upload failed, clip left on scratch")
		result.Outcome = models.DispatchUploadFailed
		result.Err = err
		return result
	}
	if err := os.Remove(clipPath); err != nil {
		logger.Warn().Err(err).Str("clip", clipPath).Msg("Failed to remove uploaded clip")
	}
	result.VideoURL = videoURL

	doc := models.NewAlertDocument(event, meta, videoURL, s.now())
	status, err := s.sender.Send(ctx, doc)
	result.StatusCode = status
	if err != nil {
		result.Err = err
		var rejected *alerts.RejectedError
		if errors.As(err, &rejected) {
			result.Outcome = models.DispatchBackendRejected
			logger.Error().Err(err).Int("status", rejected.StatusCode).Str("video", videoURL).Msg("Backend rejected alert")
		} else {
			result.Outcome = models.DispatchBackendUnreachable
			logger.Error().Err(err).Str("video", videoURL).Msg("Backend unreachable, alert not delivered")
		}
		return result
	}

	result.Outcome = models.DispatchDelivered
	logger.Info().Int("status", status).Str("video", videoURL).Msg("Accident alert delivered")
	return result
}

func (s *Service) publish(result models.DispatchResult, logger zerolog.Logger) {
	if s.opts.OutcomePublisher == nil || s.opts.OutcomeSubject == "" {
		return
	}
	if err := s.opts.OutcomePublisher.Publish(s.opts.OutcomeSubject, result); err != nil {
		logger.Warn().Err(err).Str("subject", s.opts.OutcomeSubject).Msg("Failed to publish dispatch outcome")
	}
}
