package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/catalog"
)

// VideoCatalog lists and resolves source videos
type VideoCatalog interface {
	VideoResolver
	List() ([]models.VideoInfo, error)
}

// ThumbnailRenderer returns a JPEG file path for a video
type ThumbnailRenderer interface {
	Get(videoID, sourcePath string) (string, error)
}

type VideoHandler struct {
	catalog    VideoCatalog
	thumbnails ThumbnailRenderer
}

func NewVideoHandler(catalog VideoCatalog, thumbnails ThumbnailRenderer) *VideoHandler {
	return &VideoHandler{
		catalog:    catalog,
		thumbnails: thumbnails,
	}
}

// ListVideos godoc
// @Summary List source videos
// @Description Every .mp4 in the video directory, sorted by filename. cameraId and location come from <cameraId>_<location>_<rest>.mp4 names.
// @Tags videos
// @Produce json
// @Success 200 {array} models.VideoInfo
// @Failure 500 {object} ErrorResponse
// @Router /videos [get]
func (h *VideoHandler) ListVideos(c *gin.Context) {
	videos, err := h.catalog.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list videos"})
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetThumbnail godoc
// @Summary Video thumbnail
// @Description JPEG of the first frame, cached after the first request
// @Tags videos
// @Produce image/jpeg
// @Param id path string true "Video ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/{id}/thumbnail [get]
func (h *VideoHandler) GetThumbnail(c *gin.Context) {
	videoID := c.Param("id")

	path, err := h.catalog.Resolve(videoID)
	if err != nil {
		if errors.Is(err, catalog.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	thumb, err := h.thumbnails.Get(videoID, path)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to render thumbnail")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to render thumbnail"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.File(thumb)
}
