package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/models"
	"crashalert-model-service/internal/services/alerts"
)

// CameraDirectory looks up camera records held by the backend
type CameraDirectory interface {
	ListCameras(ctx context.Context) ([]models.CameraRecord, error)
}

type CameraHandler struct {
	directory CameraDirectory
}

func NewCameraHandler(directory CameraDirectory) *CameraHandler {
	return &CameraHandler{directory: directory}
}

// ListCameras godoc
// @Summary List cameras
// @Description Camera directory proxied from the backend's internal endpoint
// @Tags cameras
// @Produce json
// @Success 200 {array} models.CameraRecord
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /cameras [get]
func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras, err := h.directory.ListCameras(c.Request.Context())
	if err != nil {
		if errors.Is(err, alerts.ErrCameraDirectoryDisabled) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Msg("Failed to fetch camera directory")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to fetch cameras from backend"})
		return
	}
	c.JSON(http.StatusOK, cameras)
}
