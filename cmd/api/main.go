package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report-ledger-api/config"
	"report-ledger-api/middleware"
	"report-ledger-api/models"
	"report-ledger-api/routes"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, _ := config.InitLogging(cfg.Log.File)
	if logFile != nil {
		defer logFile.Close()
	}
	logger := config.NewLogger(cfg.Log, cfg.Server.Environment)
	defer func() { _ = logger.Sync() }()

	db, err := config.OpenDatabase(cfg.Database, cfg.Server.Environment)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.Server.AutoMigrate {
		if err := models.Migrate(db); err != nil {
			logger.Fatal("failed to migrate schema", zap.Error(err))
		}
		if err := services.Seed(context.Background(), db); err != nil {
			logger.Fatal("failed to seed catalog", zap.Error(err))
		}
	}

	registry := services.NewModuleRegistry(db).WithLogger(logger)
	permissions := services.NewPermissionService(db, registry, cfg.Ledger.PermissionCacheTTL)
	ledger := services.NewLedgerService(db, registry, permissions)

	var notifier *services.ReceiptNotifier
	if cfg.Mail.Enabled() {
		notifier = services.NewReceiptNotifier(db, config.NewSMTPMailer(cfg.Mail), logger.Named("receipts"))
		ledger.WithListener(notifier)
	}

	svc := routes.Services{
		Registry:    registry,
		Permissions: permissions,
		Ledger:      ledger,
		Dashboard:   services.NewDashboardService(permissions, ledger, registry, cfg.Ledger.PendingPreview),
		Admin:       services.NewAdminService(db, registry, permissions),
		Auth:        services.NewAuthService(db),
		Attachments: services.NewAttachmentService(db, registry, permissions, cfg.Server.UploadPath, cfg.Server.MaxUploadMB*1024*1024),
	}

	// Set Gin mode
	if cfg.Server.GinMode == "release" || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	// Create Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	routes.SetupRoutes(router, svc, routes.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		RequireAuth: cfg.Auth.Required,
		AdminRoleID: cfg.Auth.AdminRoleID,
		TrendMonths: cfg.Ledger.TrendMonths,
	})

	// Create upload directory if not exists
	if err := os.MkdirAll(cfg.Server.UploadPath, os.ModePerm); err != nil {
		logger.Warn("failed to create upload directory", zap.String("path", cfg.Server.UploadPath), zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("auth_required", cfg.Auth.Required),
			zap.Bool("receipts", notifier != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if notifier != nil {
		notifier.Wait()
	}
	logger.Info("server stopped")
}
