package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"shortgen/config"
	"shortgen/handlers"
	"shortgen/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info().Str("config", cfg.String()).Msg("configuration loaded")

	// Initialize the generation coordinator
	coordinator, err := services.NewGenerationCoordinator(services.CoordinatorOptions{
		WebhookEndpoint: cfg.WebhookEndpoint,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize coordinator")
	}

	// Create Gin router
	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Bundled assets, including the sample clip the simulated path serves
	router.Static("/static", cfg.StaticDir)

	// API routes
	generationHandler := handlers.NewGenerationHandler(coordinator, logger)
	api := router.Group("/api")
	{
		api.POST("/generate", generationHandler.Generate)
		api.POST("/prompt", generationHandler.EditPrompt)
		api.GET("/state", generationHandler.GetState)
		api.GET("/videos", generationHandler.ListVideos)
		api.GET("/content", generationHandler.GetContent)
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info().Str("addr", addr).Msg("starting server")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "shortgen").
		Logger()
}
