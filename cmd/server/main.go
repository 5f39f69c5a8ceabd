package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiltedtrades/trades-api/internal/config"
	"github.com/tiltedtrades/trades-api/internal/handler"
	"github.com/tiltedtrades/trades-api/internal/middleware"
	"github.com/tiltedtrades/trades-api/internal/models"
	"github.com/tiltedtrades/trades-api/internal/refdata"
	"github.com/tiltedtrades/trades-api/internal/repository"
	"github.com/tiltedtrades/trades-api/internal/service"
	"github.com/tiltedtrades/trades-api/internal/storage"
	"github.com/tiltedtrades/trades-api/internal/worker"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logging
	if err := middleware.InitLogger("logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Load reference tables
	tables, err := refdata.Load(cfg.Refdata.Path, cfg.Refdata.CommissionTier)
	if err != nil {
		log.Fatalf("Failed to load reference data: %v", err)
	}

	// Initialize repositories
	execRepo := repository.NewExecutionRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services
	notifier := service.NewRedisStatsNotifier(rdb, cfg.Redis.StaleChannel)
	chartStore := storage.NewDiskChartStore(cfg.Storage.ChartDir)

	tradeService := service.NewTradeService(
		execRepo,
		overrideRepo,
		journalRepo,
		notifier,
		models.CalcMethod(cfg.Matching.LegacyDefaultMethod),
	)
	journalService := service.NewJournalService(journalRepo, tradeService, chartStore)
	ingestService := service.NewIngestService(execRepo, tables)
	ledgerService := service.NewLedgerService(ledgerRepo, notifier)
	statsService := service.NewStatsService(tradeService, statsRepo)

	// Initialize handlers
	tradeHandler := handler.NewTradeHandler(tradeService)
	journalHandler := handler.NewJournalHandler(journalService)
	ingestHandler := handler.NewIngestHandler(ingestService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Create Gin router
	router := gin.Default()

	// Add request logging middleware (logs all requests with error details)
	router.Use(middleware.RequestLoggerMiddleware())

	// Add CORS middleware
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		tradeHandler.RegisterRoutes(v1)
		journalHandler.RegisterRoutes(v1)
		ingestHandler.RegisterRoutes(v1)
		ledgerHandler.RegisterRoutes(v1)
		statsHandler.RegisterRoutes(v1)
	}

	// Start stats recomputation worker
	statsWorker := worker.NewStatsWorker(
		statsService,
		execRepo,
		rdb,
		notifier.Channel(),
		time.Duration(cfg.Worker.StatsIntervalSeconds)*time.Second,
	)
	go statsWorker.Start()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop stats worker
	statsWorker.Stop()

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Execution{},
		&models.CommissionOverride{},
		&models.Journal{},
		&models.JournalChart{},
		&models.LedgerEntry{},
		&models.AccountStats{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
