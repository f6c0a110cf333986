package api

import (
	"github.com/mverno/resemble/internal/cache"
	"github.com/mverno/resemble/internal/config"
	"github.com/mverno/resemble/internal/infra/redis"
	"github.com/mverno/resemble/internal/repository"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	cfg *config.Config,
	comparisonsRepo *repository.ComparisonsRepository,
	redisClient *redis.Client,
	scoreCache *cache.ScoreCache,
) *gin.Engine {
	router := gin.Default()

	// Create handler
	handler := NewHandler(cfg, comparisonsRepo, redisClient, scoreCache)

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(ErrorHandlerMiddleware())
	router.Use(MetricsMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/compare", handler.Compare)
		api.POST("/batch", handler.CreateBatch)
		api.GET("/batch/:id", handler.GetBatch)
	}

	return router
}
