package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tdesai7/secondbrain-backend/internal/handlers"
	"github.com/tdesai7/secondbrain-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware
	ContentHandler *handlers.ContentHandler
	SearchHandler  *handlers.SearchHandler
	ShareHandler   *handlers.ShareHandler
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/share/:hash", cfg.ShareHandler.Resolve)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/content", cfg.ContentHandler.Create)
		api.GET("/content", cfg.ContentHandler.List)
		api.GET("/content/bin", cfg.ContentHandler.ListBin)
		api.GET("/content/:id", cfg.ContentHandler.Get)
		api.DELETE("/content/:id", cfg.ContentHandler.SoftDelete)
		api.POST("/content/:id/undo", cfg.ContentHandler.Undo)
		api.DELETE("/content/:id/hard", cfg.ContentHandler.HardDelete)
		api.POST("/content/:id/manual-text", cfg.ContentHandler.ManualText)
		api.POST("/content/:id/retry-ingestion", cfg.ContentHandler.RetryIngestion)
		api.POST("/content/:id/retry-embedding", cfg.ContentHandler.RetryEmbedding)

		api.POST("/search", cfg.SearchHandler.Search)
		api.GET("/tags/trending", cfg.SearchHandler.TrendingTags)

		api.POST("/share", cfg.ShareHandler.Rotate)
	}

	return router
}
