package api

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/test", s.healthHandler.Test)

	s.router.POST("/run", s.runHandler.Run)

	videos := s.router.Group("/videos")
	{
		videos.GET("", s.videoHandler.ListVideos)
		videos.GET("/:id/thumbnail", s.videoHandler.GetThumbnail)
	}

	s.router.GET("/cameras", s.cameraHandler.ListCameras)
}
