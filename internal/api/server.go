package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/api/handlers"
	"crashalert-model-service/internal/api/middleware"
	"crashalert-model-service/internal/config"
)

// Deps are the services the HTTP layer calls into
type Deps struct {
	Model      handlers.ModelStatus
	Catalog    handlers.VideoCatalog
	Thumbnails handlers.ThumbnailRenderer
	Queue      handlers.JobQueue
	Cameras    handlers.CameraDirectory
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler *handlers.HealthHandler
	runHandler    *handlers.RunHandler
	videoHandler  *handlers.VideoHandler
	cameraHandler *handlers.CameraHandler
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:        cfg,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(deps.Model),
		runHandler:    handlers.NewRunHandler(deps.Catalog, deps.Queue),
		videoHandler:  handlers.NewVideoHandler(deps.Catalog, deps.Thumbnails),
		cameraHandler: handlers.NewCameraHandler(deps.Cameras),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
