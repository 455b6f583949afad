package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services"
	"crashalert-model-service/internal/services/pipeline"
)

var (
	cameraFlag   string
	locationFlag string
)

var scanCmd = &cobra.Command{
	Use:   "scan <videoId>",
	Short: "Scan one catalog video in the foreground and print its report",
	Long: `scan runs the same detection and dispatch steps as POST /run, but waits for
every dispatch to finish and prints the scan report as JSON. The exit status
is non-zero when the scan itself fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&cameraFlag, "camera", "", "Camera ID reported on alerts (required)")
	scanCmd.Flags().StringVar(&locationFlag, "location", "", "Location reported on alerts (required)")
	scanCmd.MarkFlagRequired("camera")
	scanCmd.MarkFlagRequired("location")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := services.NewServiceContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := container.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Services did not stop cleanly")
		}
	}()

	videoID := args[0]
	path, err := container.Catalog.Resolve(videoID)
	if err != nil {
		return fmt.Errorf("%s: %w", videoID, err)
	}

	report := container.Pipeline.Run(ctx, pipeline.Job{
		VideoID:    videoID,
		SourcePath: path,
		Meta:       models.RunMetadata{CameraID: cameraFlag, Location: locationFlag},
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	log.Info().
		Str("video_id", videoID).
		Int("events", report.Events).
		Int("delivered", report.Delivered()).
		Msg("Scan complete")
	return report.Err
}
