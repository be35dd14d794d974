package main

import (
  "fmt"
  "net/http"
  "os"
  "time"
  "github.com/Krisnegi/rag-knowledge-engine/internal/clients/redis"
  "github.com/Krisnegi/rag-knowledge-engine/internal/db"
  "github.com/Krisnegi/rag-knowledge-engine/internal/handlers"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/middleware"
  "github.com/Krisnegi/rag-knowledge-engine/internal/repos"
  "github.com/Krisnegi/rag-knowledge-engine/internal/server"
  "github.com/Krisnegi/rag-knowledge-engine/internal/services"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  rateLimitRPM := utils.GetEnvAsInt("RATE_LIMIT_RPM", 10, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up repos...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  documentRepo := repos.NewDocumentRepo(thePG, log)
  chatSessionRepo := repos.NewChatSessionRepo(thePG, log)
  chatMessageRepo := repos.NewChatMessageRepo(thePG, log)

  // Queue
  log.Info("Setting up job queue...")
  jobQueue, err := redis.NewJobQueue(log)
  if err != nil {
    log.Error("Could not init job queue", "error", err)
    os.Exit(1)
  }
  defer jobQueue.Close()

  // Services
  log.Info("Setting up services...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  ingestionService := services.NewIngestionService(thePG, log, documentRepo, jobQueue)
  ragClient := services.NewRagClient(log, &http.Client{Timeout: 120 * time.Second})
  chatService := services.NewChatService(thePG, log, chatSessionRepo, chatMessageRepo, ragClient)

  // Handlers
  log.Info("Setting up handlers...")
  authHandler := handlers.NewAuthHandler(authService)
  ingestionHandler := handlers.NewIngestionHandler(ingestionService)
  chatHandler := handlers.NewChatHandler(chatService)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  rateLimit := middleware.NewRateLimitMiddleware(log, rateLimitRPM)
  defer rateLimit.Close()

  // Router
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:      authHandler,
    IngestionHandler: ingestionHandler,
    ChatHandler:      chatHandler,
    AuthMiddleware:   authMiddleware,
    RateLimit:        rateLimit,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
