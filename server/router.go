package server

import (
	"net/http"
	"time"

	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"social-publisher/infrastructure/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	publishHandler httpHandler.IPublishHandler,
	youtubeAuthHandler httpHandler.IYouTubeAuthHandler,
	progressHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4201", "http://localhost:4200", "https://localhost:4201", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origin == "http://localhost:4201" || origin == "http://localhost:4200" || origin == "https://localhost:4201" || origin == "https://localhost:4200"
		},
		MaxAge: 12 * time.Hour,
	}))

	api := router.Group("api")
	api.Use(middleware.Auth())

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth authentication routes
	if youtubeAuthHandler != nil {
		router.GET("/auth/youtube", youtubeAuthHandler.GetAuthURL)
		router.GET("/auth/youtube/callback", youtubeAuthHandler.HandleCallback)
		api.GET("/youtube/oauth/status", youtubeAuthHandler.Status)
	}

	// Publish pipeline routes
	if publishHandler != nil {
		publish := api.Group("/publish")
		{
			publish.POST("", publishHandler.Publish)
			publish.GET("/jobs", publishHandler.ListJobs)
			publish.GET("/jobs/:jobId", publishHandler.GetJob)
			publish.POST("/process-jobs", publishHandler.ProcessJobs)
		}
	}

	// SSE stream of publish progress for the authenticated user
	if progressHub != nil {
		api.GET("/publish/events", progressHub.Serve)
	}

	return router
}
