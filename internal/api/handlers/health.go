package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ModelStatus reports whether the detection model finished loading
type ModelStatus interface {
	Loaded() bool
}

type HealthHandler struct {
	model ModelStatus
}

func NewHealthHandler(model ModelStatus) *HealthHandler {
	return &HealthHandler{model: model}
}

type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	ModelLoaded bool   `json:"model_loaded" example:"true"`
}

type StatusResponse struct {
	Status string `json:"status" example:"healthy"`
}

// @Summary Health check
// @Description Liveness plus whether the detection model is loaded
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.model.Loaded(),
	})
}

// @Summary Connectivity test
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /test [get]
func (h *HealthHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "healthy"})
}
