package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"payflow/internal/handlers"
	"payflow/internal/middleware"
	"payflow/internal/providers"
	"payflow/internal/services"
	"payflow/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize the ledger store
	var ledger store.Ledger
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL != "" {
		db, err := services.InitDB(databaseURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := services.AutoMigrate(db, logger); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
		ledger = store.NewGormLedger(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory ledger (records are not durable)")
		ledger = store.NewMemoryLedger()
	}

	// Optional idempotency replay cache
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer cache.Close()
	}

	// Provider gateway registry, built once at startup
	registry := providers.NewRegistry(
		providers.NewCardGateway(logger),
		providers.NewPhonePeGateway(logger),
		providers.NewPaytmGateway(logger),
		providers.NewGooglePayGateway(logger),
	)

	paymentService := services.NewPaymentService(ledger, registry, cache, logger)
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("invalid PROVIDER_TIMEOUT", zap.String("value", v), zap.Error(err))
		}
		paymentService.SetProviderTimeout(d)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	e.POST("/payments/initiate", paymentHandler.InitiatePayment)
	e.POST("/payments/refund", paymentHandler.RefundPayment)
	e.GET("/payments", paymentHandler.ListPayments)
	e.GET("/payments/:id", paymentHandler.GetPayment)
	e.POST("/payments/:id/callback", paymentHandler.ProviderCallback)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	e.Logger.Fatal(e.Start(":" + port))
}
