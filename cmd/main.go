package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tdesai7/secondbrain-backend/internal/db"
	"github.com/tdesai7/secondbrain-backend/internal/handlers"
	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/middleware"
	"github.com/tdesai7/secondbrain-backend/internal/queue"
	"github.com/tdesai7/secondbrain-backend/internal/repos"
	"github.com/tdesai7/secondbrain-backend/internal/server"
	"github.com/tdesai7/secondbrain-backend/internal/services"
	"github.com/tdesai7/secondbrain-backend/internal/utils"
	"github.com/tdesai7/secondbrain-backend/internal/workers"
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
	workerConcurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 3, log)
	undoWindow := utils.GetEnvAsDuration("UNDO_WINDOW", 30*24*time.Hour, log)
	retention := utils.GetEnvAsDuration("BIN_RETENTION", 30*24*time.Hour, log)
	reaperInterval := utils.GetEnvAsDuration("REAPER_INTERVAL", time.Hour, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	contentRepo := repos.NewContentRepo(thePG, log)
	tagRepo := repos.NewTagRepo(thePG, log)
	jobRepo := repos.NewJobRepo(thePG, log)
	shareLinkRepo := repos.NewShareLinkRepo(thePG, log)

	// Queue
	log.Info("Setting up queue client...")
	queueClient := queue.NewClient(thePG, log, jobRepo)

	// Services
	log.Info("Setting up services...")
	var notifier services.PipelineNotifier
	notifier, err = services.NewRedisNotifier(log)
	if err != nil {
		log.Warn("Redis notifier unavailable, pipeline events disabled", "error", err)
		notifier = services.NoopNotifier{}
	}
	embedder, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init embedding client", "error", err)
		os.Exit(1)
	}
	extractor := services.NewExtractor(log)
	tagService := services.NewTagService(thePG, log, tagRepo)
	contentCfg := services.DefaultContentConfig()
	contentCfg.UndoWindow = undoWindow
	contentCfg.Retention = retention
	contentService := services.NewContentService(thePG, log, contentRepo, tagService, queueClient, contentCfg)
	searchService := services.NewSearchService(thePG, log, contentRepo, embedder)
	shareService := services.NewShareService(thePG, log, shareLinkRepo, contentRepo)

	// Workers
	log.Info("Setting up workers...")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := queue.NewRegistry()
	if err := registry.Register(workers.NewIngestionHandler(thePG, log, contentRepo, extractor, queueClient, notifier, contentCfg.QueuePolicy)); err != nil {
		log.Error("Register ingestion handler failed", "error", err)
		os.Exit(1)
	}
	if err := registry.Register(workers.NewEmbeddingHandler(thePG, log, contentRepo, embedder, notifier)); err != nil {
		log.Error("Register embedding handler failed", "error", err)
		os.Exit(1)
	}
	queueWorker := queue.NewWorker(thePG, log, jobRepo, registry, workerConcurrency)
	queueWorker.Start(ctx)

	reaper := workers.NewBinReaper(log, contentService, reaperInterval)
	reaper.Start(ctx)

	// Handlers
	log.Info("Setting up handlers...")
	contentHandler := handlers.NewContentHandler(log, contentService)
	searchHandler := handlers.NewSearchHandler(log, searchService, tagService)
	shareHandler := handlers.NewShareHandler(log, shareService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware: authMiddleware,
		ContentHandler: contentHandler,
		SearchHandler:  searchHandler,
		ShareHandler:   shareHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
