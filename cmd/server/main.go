package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vocabmaster/quiz-service/internal/cache"
	"github.com/vocabmaster/quiz-service/internal/config"
	"github.com/vocabmaster/quiz-service/internal/generator"
	"github.com/vocabmaster/quiz-service/internal/handlers"
	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
	"github.com/vocabmaster/quiz-service/internal/repositories/memory"
	"github.com/vocabmaster/quiz-service/internal/repositories/postgres"
	"github.com/vocabmaster/quiz-service/internal/repositories/redisstore"
	"github.com/vocabmaster/quiz-service/internal/repositories/remote"
	"github.com/vocabmaster/quiz-service/internal/services"
	"github.com/vocabmaster/quiz-service/internal/session"
	"github.com/vocabmaster/quiz-service/internal/utils"
	"github.com/vocabmaster/quiz-service/internal/validator"
	"github.com/vocabmaster/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	// Postgres is the local stats store; without it the service falls back
	// to in-memory stats, which is enough for local development.
	var statsRepo repositories.StatsRepository
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Warn("Database unavailable, using in-memory stats store", "error", err)
		statsRepo = memory.NewStatsRepository()
	} else {
		if err := db.AutoMigrate(&models.UserStatsRecord{}); err != nil {
			logger.Error("Database migration failed", "error", err)
			os.Exit(1)
		}
		statsRepo = postgres.NewStatsRepository(db)
	}

	// Redis carries the stats cache and the last-user slot; both degrade
	// gracefully when it is missing.
	var cacheService cache.CacheService
	var lastUserRepo repositories.LastUserRepository
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
		lastUserRepo = memory.NewLastUserRepository()
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient)
		lastUserRepo = redisstore.NewLastUserRepository(redisClient)
	}

	var remoteStore repositories.RemoteStatsStore
	if cfg.RemoteSyncURL != "" {
		remoteStore = remote.NewWebhookStore(cfg.RemoteSyncURL)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	gen := generator.NewGeminiGenerator(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)

	registry := session.NewRegistry(cfg.SessionIdleTTL)
	defer registry.Close()

	statsService := services.NewStatsService(statsRepo, remoteStore, cacheService, publisher, slogLogger)
	sessionService := services.NewSessionService(registry, gen, statsService, publisher, slogLogger, cfg.QuestionsPerSession)
	exportService := services.NewExportService(statsService, slogLogger)
	userService := services.NewUserService(lastUserRepo, slogLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlerManager := handlers.NewHandlerManager(
		userService, sessionService, statsService, exportService,
		validator.New(), logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
