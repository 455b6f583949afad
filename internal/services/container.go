package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/alerts"
	"crashalert-model-service/internal/services/archive"
	"crashalert-model-service/internal/services/catalog"
	"crashalert-model-service/internal/services/clip"
	"crashalert-model-service/internal/services/detection"
	"crashalert-model-service/internal/services/dispatch"
	"crashalert-model-service/internal/services/inference"
	"crashalert-model-service/internal/services/messaging"
	"crashalert-model-service/internal/services/pipeline"
	"crashalert-model-service/internal/services/thumbnail"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config     *config.Config
	Inference  *inference.Service
	Catalog    *catalog.Service
	Thumbnails *thumbnail.Service
	Alerts     *alerts.Service
	Archive    archive.Uploader
	Dispatch   *dispatch.Service
	Pipeline   *pipeline.Service
	Messaging  *messaging.Service
}

// NewServiceContainer wires the scan pipeline. A model that fails to load
// does not fail construction; scans then fail with inference.ErrModelNotLoaded.
func NewServiceContainer(ctx context.Context, cfg *config.Config) (*ServiceContainer, error) {
	scanner, err := detection.NewScanner(detection.Options{
		ClassID:   cfg.AccidentClassID,
		Threshold: cfg.AccidentThreshold,
		Cooldown:  cfg.CooldownSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scanner options: %w", err)
	}

	uploader, err := archive.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sc := &ServiceContainer{
		Config:     cfg,
		Catalog:    catalog.NewService(cfg.VideoDir),
		Thumbnails: thumbnail.NewService(cfg.ThumbnailDir, cfg.ThumbnailWidth),
		Alerts:     alerts.NewService(cfg),
		Archive:    uploader,
	}

	var publisher models.MessagePublisher
	if cfg.NatsEnabled {
		msg, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, outcome events disabled")
		} else {
			sc.Messaging = msg
			publisher = msg
		}
	}

	sc.Inference = inference.NewService(cfg)

	sc.Dispatch = dispatch.NewService(clip.NewService(cfg), uploader, sc.Alerts, dispatch.Options{
		LeadSeconds:      cfg.ClipLeadSeconds,
		TailSeconds:      cfg.ClipTailSeconds,
		OutcomeSubject:   cfg.NatsDispatchSubject,
		OutcomePublisher: publisher,
	})

	sc.Pipeline = pipeline.NewService(openFrames(sc.Inference), scanner, sc.Dispatch, pipeline.Options{
		Workers:             cfg.ScanWorkers,
		QueueSize:           cfg.ScanQueueSize,
		DispatchConcurrency: cfg.DispatchConcurrency,
		ReportSubject:       cfg.NatsScanSubject,
		ReportPublisher:     publisher,
	})

	log.Info().
		Str("archive", uploader.Backend()).
		Bool("model_loaded", sc.Inference.Loaded()).
		Bool("nats", sc.Messaging != nil).
		Msg("Services initialized")

	return sc, nil
}

func openFrames(inf *inference.Service) pipeline.OpenFunc {
	return func(path string) (pipeline.FrameStream, error) {
		src, err := inf.Open(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.Pipeline != nil {
		if err := sc.Pipeline.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pipeline: %w", err))
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("messaging: %w", err))
		}
	}

	if sc.Inference != nil {
		if err := sc.Inference.Close(); err != nil {
			errs = append(errs, fmt.Errorf("inference: %w", err))
		}
	}

	return errors.Join(errs...)
}
