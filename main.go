package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/svanhaverbeke/offerbuilder/config"
	"github.com/svanhaverbeke/offerbuilder/handler"
	"github.com/svanhaverbeke/offerbuilder/middleware"
	"github.com/svanhaverbeke/offerbuilder/pkg/logger"
	"github.com/svanhaverbeke/offerbuilder/service"
)

func main() {
	// .env is optional, real environments set variables directly
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	docxSvc, err := service.NewDocxService(cfg.Docx.OutputDir)
	if err != nil {
		slog.Error("failed to initialize docx service", "error", err)
		os.Exit(1)
	}

	templateSvc, err := service.NewTemplateService(cfg.Docx.TemplatesDir)
	if err != nil {
		slog.Error("failed to initialize template service", "error", err)
		os.Exit(1)
	}

	geminiSvc := service.NewGeminiService(&cfg.Gemini)
	if cfg.Gemini.APIKey == "" {
		slog.Warn("no Gemini API key configured, content generation will use fallback text")
	}

	// Archive to MinIO only when configured
	var archiveSvc *service.ArchiveService
	if cfg.Minio.Enabled() {
		archiveSvc, err = service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MinIO archive", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MinIO bucket", "error", err)
			os.Exit(1)
		}
		slog.Info("offer archive enabled", "bucket", cfg.Minio.Bucket)
	}

	// Initialize offer store with config
	service.InitOfferStore(&cfg.Store)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	offerHandler := handler.NewOfferHandler(docxSvc, geminiSvc, templateSvc, archiveSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	extractHandler := handler.NewExtractHandler(geminiSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/offers", offerHandler.Create)
		protected.GET("/offers", offerHandler.List)
		protected.GET("/offers/:id/download", offerHandler.Download)

		protected.POST("/templates", templateHandler.Upload)
		protected.GET("/templates", templateHandler.List)
		protected.DELETE("/templates/:id", templateHandler.Delete)

		protected.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"gemini_configured": cfg.Gemini.APIKey != "",
				"archive_enabled":   cfg.Minio.Enabled(),
				"templates_dir":     cfg.Docx.TemplatesDir,
				"output_dir":        cfg.Docx.OutputDir,
				"offers_in_store":   service.GetOfferStore().Count(),
			})
		})

		// AI-backed routes carry their own rate limit
		ai := protected.Group("/")
		ai.Use(middleware.RateLimit(cfg.Server.AIRateLimit, time.Minute))
		{
			ai.POST("/offers/content", offerHandler.GenerateContent)
			ai.POST("/extract/document", extractHandler.Document)
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
