package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roomscan/backend/config"
	"github.com/roomscan/backend/handler"
	"github.com/roomscan/backend/middleware"
	"github.com/roomscan/backend/pkg/logger"
	"github.com/roomscan/backend/service"
)

func main() {
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

	// Initialize storage
	storageSvc, err := service.NewStorageService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize storage service", "error", err)
		os.Exit(1)
	}

	// Ensure bucket exists
	if err := storageSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure bucket", "error", err)
		os.Exit(1)
	}

	// Invite and user stores: Postgres when a DSN is configured, otherwise
	// in-memory invites and config-backed users
	var inviteStore service.InviteStore
	var userStore service.UserStore
	if cfg.Database.DSN != "" {
		db, err := service.OpenDatabase(cfg.Database.DSN)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := service.EnsureSchema(context.Background(), db); err != nil {
			slog.Error("failed to ensure database schema", "error", err)
			os.Exit(1)
		}

		inviteStore = service.NewPostgresInviteStore(db)
		userStore = service.NewPostgresUserStore(db)
		slog.Info("using postgres stores")
	} else {
		inviteStore = service.NewMemoryInviteStore(1000)
		userStore = service.NewConfigUserStore(cfg)
		slog.Info("no database configured, using in-memory stores")
	}

	// Detector: the demo detector writes deterministic results locally;
	// otherwise inference goes to the managed endpoint
	detectorSvc := service.NewDetectorService(&cfg.Detector)
	var demoDetector *service.DemoDetector
	if cfg.Detector.DemoMode {
		demoDetector = service.NewDemoDetector(storageSvc)
		slog.Info("demo mode enabled, detection results are generated locally")
	} else if !detectorSvc.Enabled() {
		slog.Warn("no detector endpoint configured, uploads will stay in processing")
	}

	statusSvc := service.NewStatusService(storageSvc)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg, userStore)
	uploadHandler := handler.NewUploadHandler(storageSvc, storageSvc, detectorSvc, demoDetector, storageSvc.Bucket(), cfg)
	statusHandler := handler.NewStatusHandler(statusSvc)
	inviteHandler := handler.NewInviteHandler(inviteStore, cfg.Invites.ExpireDays)
	callbackHandler := handler.NewCallbackHandler(detectorSvc, storageSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(cacheMiddleware())                      // Cache control
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

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
		api.POST("/detector/callback", callbackHandler.HandleCallback)
		api.POST("/invites/accept", inviteHandler.Accept)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/upload", uploadHandler.Upload)
		protected.GET("/status/:jobId", statusHandler.GetStatus)
	}

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin(userStore))
	{
		admin.POST("/invites", inviteHandler.Create)
		admin.GET("/invites", inviteHandler.List)
		admin.DELETE("/invites/:id", inviteHandler.Revoke)
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

// cacheMiddleware disables caching on API responses. Status polling in
// particular must never be served from a cache.
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.Next()
	}
}
