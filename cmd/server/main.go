package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storypals-server/internal/clients"
	"storypals-server/internal/config"
	"storypals-server/internal/database"
	"storypals-server/internal/handler"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/middleware"
	"storypals-server/internal/payments"
	"storypals-server/internal/service"
	"storypals-server/internal/storage"
)

func main() {
	// --- Configuration ---
	// .env удобен для локальной разработки, в контейнерах его может не быть.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully")

	// --- External Connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	if err := database.ApplyMigrations(pgPool); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}
	zap.L().Info("Database migrations applied")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	var mediaStore interfaces.MediaStore
	if cfg.ObjectStorageEnabled() {
		mediaStore, err = storage.NewMinioMediaStore(ctx, cfg, logger)
		if err != nil {
			zap.L().Fatal("Failed to set up object storage", zap.Error(err))
		}
		zap.L().Info("Object storage enabled", zap.String("bucket", cfg.MinioBucket))
	}

	// --- Dependency Injection ---
	creditRepo := database.NewPgCreditRepository(pgPool, logger.Named("PgCreditRepo"))
	storyRepo := database.NewPgStoryRepository(pgPool, logger.Named("PgStoryRepo"))
	generationLock := database.NewRedisGenerationLock(redisClient, logger)
	processedEvents := database.NewRedisProcessedEvents(redisClient, logger)

	aiClient, err := service.NewAIClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}
	imageClient := clients.NewFluxClient(cfg, logger)
	videoClient := clients.NewWanClient(cfg, logger)
	speechClient := clients.NewElevenLabsClient(cfg, logger)

	contentGen := service.NewStoryContentGenerator(aiClient, logger)
	portraitGen := service.NewPortraitGenerator(imageClient, cfg, logger)
	pageMediaGen := service.NewPageMediaGenerator(aiClient, imageClient, videoClient, mediaStore, cfg, logger)
	narration := service.NewNarrationService(speechClient, logger)
	runStore := service.NewRunStore(logger)
	orchestrator := service.NewOrchestrator(creditRepo, generationLock, contentGen, portraitGen, pageMediaGen, storyRepo, runStore, cfg, logger)

	stripeService := payments.NewStripeService(cfg, creditRepo, processedEvents, logger)

	h := handler.NewHandler(orchestrator, narration, storyRepo, creditRepo, stripeService, cfg.JWTSecret, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddleware(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Stripe-Signature"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}
