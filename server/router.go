package server

import (
	"net/http"
	"time"

	httpHandler "social-integration/interfaces/http"
	"social-integration/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups what the router mounts. OAuth handlers and Stream are optional.
type Handlers struct {
	Publish    httpHandler.IPublishHandler
	Message    httpHandler.IMessageHandler
	Credential httpHandler.ICredentialHandler
	Facebook   httpHandler.IOAuthHandler
	YouTube    httpHandler.IOAuthHandler
	Stream     gin.HandlerFunc
}

type RouterConfig struct {
	SecretKey      string
	AllowedOrigins []string
}

var defaultOrigins = []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"}

func InitiateRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth(cfg.SecretKey))

	// OAuth: the consent URL needs a session, the provider redirect does not
	if h.Facebook != nil {
		api.GET("/oauth/facebook", h.Facebook.GetAuthURL)
		router.GET("/auth/facebook/callback", h.Facebook.Callback)
	}
	if h.YouTube != nil {
		api.GET("/oauth/youtube", h.YouTube.GetAuthURL)
		router.GET("/auth/youtube/callback", h.YouTube.Callback)
	}

	if h.Credential != nil {
		api.GET("/credentials", h.Credential.List)
		api.DELETE("/credentials/:platform", h.Credential.Disconnect)
	}

	api.GET("/platforms", h.Publish.GetPlatforms)
	api.POST("/publish", h.Publish.PublishToMany)
	api.GET("/publish/jobs/:jobId", h.Publish.GetJob)
	api.GET("/publish/history", h.Publish.History)
	if h.Stream != nil {
		api.GET("/publish/stream", h.Stream)
	}

	platform := api.Group("/platforms/:platform")
	{
		platform.GET("/verify", h.Publish.VerifyAuth)
		platform.POST("/posts", h.Publish.Publish)
		platform.PUT("/posts/:postId", h.Publish.Update)
		platform.DELETE("/posts/:postId", h.Publish.Delete)
		platform.GET("/posts/:postId/metrics", h.Publish.GetMetrics)

		if h.Message != nil {
			platform.POST("/messages", h.Message.Send)
			platform.POST("/messages/typing", h.Message.Typing)
			platform.POST("/messages/read", h.Message.MarkRead)
			platform.GET("/conversations/:participantId/messages", h.Message.History)
		}
	}

	return router
}
