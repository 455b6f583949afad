package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crashalert-model-service/internal/api"
	"crashalert-model-service/internal/logging"
	"crashalert-model-service/internal/services"
	"crashalert-model-service/internal/services/healthcheck"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run queued scans",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	logger := logging.NewServiceLogger(cfg, "model-service")

	logger.Info().
		Str("version", cfg.Version).
		Int("port", cfg.Port).
		Str("video_dir", cfg.VideoDir).
		Str("archive", cfg.ArchiveBackend).
		Float64("threshold", cfg.AccidentThreshold).
		Float64("cooldown_seconds", cfg.CooldownSeconds).
		Msg("Starting CrashAlert model service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := services.NewServiceContainer(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize services")
		return err
	}
	container.Pipeline.Start()

	var health *healthcheck.Service
	if cfg.GRPCHealthEnabled {
		health, err = healthcheck.NewService(cfg.GRPCHealthPort, container.Inference.Loaded())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start gRPC health service")
			return err
		}
		go func() {
			if err := health.Serve(); err != nil {
				logger.Error().Err(err).Msg("gRPC health server stopped")
			}
		}()
	}

	server := api.NewServer(cfg, api.Deps{
		Model:      container.Inference,
		Catalog:    container.Catalog,
		Thumbnails: container.Thumbnails,
		Queue:      container.Pipeline,
		Cameras:    container.Alerts,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	if health != nil {
		if err := health.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("gRPC health server forced to stop")
		}
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Services did not stop cleanly")
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
