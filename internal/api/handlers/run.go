package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crashalert-model-service/internal/logging"
	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/catalog"
	"crashalert-model-service/internal/services/pipeline"
)

// VideoResolver maps a video id to a readable source file
type VideoResolver interface {
	Resolve(videoID string) (string, error)
}

// JobQueue accepts scan jobs without blocking
type JobQueue interface {
	Submit(job pipeline.Job) (string, error)
}

type RunHandler struct {
	videos VideoResolver
	queue  JobQueue
}

func NewRunHandler(videos VideoResolver, queue JobQueue) *RunHandler {
	return &RunHandler{videos: videos, queue: queue}
}

type RunRequest struct {
	VideoID  string `json:"videoId" binding:"required" example:"cam1_Herzl-Jabotinsky_2024-05-01"`
	CameraID string `json:"cameraId" binding:"required" example:"cam1"`
	Location string `json:"location" binding:"required" example:"Herzl-Jabotinsky"`
}

type RunResponse struct {
	Status string `json:"status" example:"processing_started"`
	Video  string `json:"video" example:"cam1_Herzl-Jabotinsky_2024-05-01"`
	JobID  string `json:"job_id" example:"5f0c1a9e-4c1b-4d8e-9d4a-0b8f5e0f9c11"`
}

// Run queues a scan of a catalog video
// @Summary Start an accident scan
// @Description Queue a scan of the video. Accidents found are clipped, archived and posted to the backend after this call returns.
// @Tags scans
// @Accept json
// @Produce json
// @Param request body RunRequest true "Video and camera metadata"
// @Success 202 {object} RunResponse
// @Failure 404 {object} DetailResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /run [post]
func (h *RunHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn(c).Err(err).Msg("Invalid run request")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	path, err := h.videos.Resolve(req.VideoID)
	if err != nil {
		if errors.Is(err, catalog.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, DetailResponse{Detail: "video not found"})
			return
		}
		logging.Error(c).Err(err).Str("video_id", req.VideoID).Msg("Failed to resolve video")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve video"})
		return
	}

	jobID, err := h.queue.Submit(pipeline.Job{
		VideoID:    req.VideoID,
		SourcePath: path,
		Meta:       models.RunMetadata{CameraID: req.CameraID, Location: req.Location},
	})
	if err != nil {
		logging.Warn(c).Err(err).Str("video_id", req.VideoID).Msg("Scan job refused")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	logging.SetJobID(c, jobID)

	logging.Info(c).
		Str("video_id", req.VideoID).
		Str("camera_id", req.CameraID).
		Str("location", req.Location).
		Msg("Scan accepted")

	c.JSON(http.StatusAccepted, RunResponse{
		Status: "processing_started",
		Video:  req.VideoID,
		JobID:  jobID,
	})
}
