package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/config"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	checkoutControllers "github.com/junaidrashid-git/storefront-api/controllers/checkout"
	gatewayControllers "github.com/junaidrashid-git/storefront-api/controllers/gateway"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/routes"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("✅ Starting application...")

	// Init DB and migrate all tables
	db, err := database.Open(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// Order events go to the dashboard websocket and, when configured, Kafka.
	hub := events.NewHub(logger)
	publishers := events.Multi{hub}
	var producer *events.KafkaProducer
	if cfg.KafkaEnabled() {
		producer = events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		publishers = append(publishers, producer)
		logger.Info("publishing order events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaOrderTopic))
	}

	orders := orderControllers.NewService(db, orderControllers.NewNumberGenerator(cfg.OrderNumberAttempts), publishers, logger)
	gateway := gatewayControllers.NewAdapter(db, gatewayControllers.Config{
		FormURL:     cfg.GatewayFormURL,
		ProductCode: cfg.GatewayProductCode,
		SecretKey:   cfg.GatewaySecretKey,
		SuccessURL:  cfg.GatewaySuccessURL,
		FailureURL:  cfg.GatewayFailureURL,
		Currency:    cfg.Currency,
	}, gatewayControllers.NewVerificationClient(cfg.GatewayVerifyURL, cfg.GatewayProductCode, cfg.GatewayTimeout), publishers, logger)

	// Gin setup
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, &routes.Deps{
		DB:          db,
		Log:         logger,
		JWTSecret:   cfg.JWTSecret,
		AdminAPIKey: cfg.AdminAPIKey,
		Hub:         hub,
		Carts:       cartControllers.NewStore(db, logger),
		Orders:      orders,
		Gateway:     gateway,
		Checkout:    checkoutControllers.NewService(orders, gateway, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	hub.Close()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLogger builds a development logger for LOG_LEVEL=debug and a
// production JSON logger at the given level otherwise.
func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// cors rejects credentials together with a wildcard origin.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
