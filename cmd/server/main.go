package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/edulens/quizcover/internal/adapter/ai"
	"github.com/edulens/quizcover/internal/adapter/store"
	"github.com/edulens/quizcover/internal/handler"
	"github.com/edulens/quizcover/internal/service"
	"github.com/edulens/quizcover/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("starting quizcover",
		"port", cfg.Port,
		"embedding_deployment", cfg.AzureEmbeddingDeployment,
		"embedding_dimension", cfg.EmbeddingDimension,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	// ── Embedding client ─────────────────────────────────────────────────
	embedder, err := ai.NewAzureClient(ai.AzureConfig{
		Endpoint:   cfg.AzureEmbeddingEndpoint,
		APIKey:     cfg.AzureEmbeddingAPIKey,
		Deployment: cfg.AzureEmbeddingDeployment,
		APIVersion: cfg.AzureEmbeddingAPIVersion,
	})
	if err != nil {
		slog.Error("embedding client configuration invalid", "error", err)
		os.Exit(1)
	}

	// ── Services ─────────────────────────────────────────────────────────
	coverageService := service.NewCoverageService(pgStore, embedder)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	coverageHandler := handler.NewCoverageHandler(coverageService)
	coverageHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
