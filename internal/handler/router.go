package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nextrep/internal/cache"
	"nextrep/internal/config"
	"nextrep/internal/domain"
	"nextrep/internal/service"
	"nextrep/pkg/logger"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SetupRouter configures the Gin router with middleware and routes
func SetupRouter(svc service.ExerciseService, registry *cache.Registry, cfg *config.Config, log *logger.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	exerciseHandler := NewExerciseHandler(svc, log)
	cacheHandler := NewCacheHandler(registry, log)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg))
	router.Use(SecurityHeadersMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitPerMinute, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.HealthResponse{
			Status:    "healthy",
			Service:   "nextrep",
			Version:   Version,
			Storage:   cfg.StorageBackend,
			Timestamp: time.Now().UTC(),
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(TimeoutMiddleware(cfg.ExerciseAPITimeout + 5*time.Second))
	{
		v1.GET("/categories", exerciseHandler.ListCategories)
		v1.GET("/exercises", exerciseHandler.ListExercises)
		v1.GET("/exercises/:id", exerciseHandler.GetExercise)
		v1.POST("/exercises/preload", exerciseHandler.Preload)
	}

	invalidate := v1.Group("/exercises")
	invalidate.Use(AuthMiddleware(cfg))
	{
		invalidate.DELETE("/cache", exerciseHandler.InvalidateBodyPart)
		invalidate.DELETE("/:id/cache", exerciseHandler.InvalidateExercise)
	}

	admin := v1.Group("/cache")
	admin.Use(AuthMiddleware(cfg))
	{
		admin.GET("", cacheHandler.ListNamespaces)
		admin.GET("/:namespace/stats", cacheHandler.Stats)
		admin.GET("/:namespace/keys/:key", cacheHandler.KeyInfo)
		admin.DELETE("/:namespace/keys/:key", cacheHandler.RemoveKey)
		admin.DELETE("/:namespace", cacheHandler.Clear)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error: "endpoint not found",
			Code:  http.StatusNotFound,
		})
	})

	return router
}
