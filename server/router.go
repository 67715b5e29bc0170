package server

import (
	"time"

	httpHandler "vidfeed/interfaces/http"
	"vidfeed/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitiateRouter mounts the public API. With no allowed origins configured any
// origin may read the feed.
func InitiateRouter(
	submissionHandler httpHandler.ISubmissionHandler,
	videoHandler httpHandler.IVideoHandler,
	healthHandler httpHandler.IHealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	api := router.Group("api")
	api.POST("/submit", submissionHandler.Submit)
	api.GET("/videos", videoHandler.ListVideos)
	api.GET("/videos/stream", videoHandler.Stream)
	api.GET("/submissions", submissionHandler.ListSubmissions)
	api.GET("/submissions/:id", submissionHandler.GetSubmission)

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
