package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/Krisnegi/rag-knowledge-engine/internal/handlers"
  "github.com/Krisnegi/rag-knowledge-engine/internal/middleware"
)

type RouterConfig struct {
  AuthHandler      *handlers.AuthHandler
  IngestionHandler *handlers.IngestionHandler
  ChatHandler      *handlers.ChatHandler
  AuthMiddleware   *middleware.AuthMiddleware
  RateLimit        *middleware.RateLimitMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))
  if cfg.RateLimit != nil {
    router.Use(cfg.RateLimit.Limit())
  }

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/auth/signup", cfg.AuthHandler.Signup)
    api.POST("/auth/login", cfg.AuthHandler.Login)

    protected := api.Group("/")
    protected.Use(cfg.AuthMiddleware.RequireAuth())
    {
      protected.POST("/auth/logout", cfg.AuthHandler.Logout)
      protected.POST("/ingestion", cfg.IngestionHandler.Submit)
      protected.POST("/chat", cfg.ChatHandler.Converse)
      protected.GET("/chat/history", cfg.ChatHandler.History)
    }
  }

  return router
}
