package main

import (
	"log"
	"time"

	"DocHive/backend/go/internal/config"
	"DocHive/backend/go/internal/database/kafka"
	"DocHive/backend/go/internal/database/minio"
	"DocHive/backend/go/internal/database/mysql"
	"DocHive/backend/go/internal/doc_service/api"
	"DocHive/backend/go/internal/doc_service/objstore"
	"DocHive/backend/go/internal/doc_service/publisher"
	"DocHive/backend/go/internal/doc_service/service"
	"DocHive/backend/go/internal/doc_service/store"
	"DocHive/backend/go/pkg/circuitbreaker"
	"DocHive/backend/go/pkg/logger"
	"DocHive/backend/go/pkg/ratelimiter"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("doc_service", "", "")

	appLogger.Info("Logger initialized")

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database connection established")

	// Auto-migrate database schema
	st := store.NewStore(db)
	if err := st.AutoMigrate(); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	// Initialize object storage
	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Object storage connection established")

	// Ensure Kafka topics exist and build the event publisher
	if err := kafka.EnsureTopics(&cfg.Databases.Kafka); err != nil {
		appLogger.Fatal(err.Error())
	}
	eventTopic := "doc-events"
	if len(cfg.Databases.Kafka.Topics) > 0 {
		eventTopic = cfg.Databases.Kafka.Topics[0]
	}
	eventPublisher := publisher.NewDocEventPublisher(cfg.Databases.Kafka.Brokers, eventTopic, appLogger)
	defer eventPublisher.Close()
	appLogger.Info("Kafka publisher initialized")

	// Wrap object storage calls with a circuit breaker when enabled
	var breaker circuitbreaker.CircuitBreaker
	if cfg.Middleware.CircuitBreaker.Enabled {
		timeout, err := time.ParseDuration(cfg.Middleware.CircuitBreaker.Timeout)
		if err != nil {
			timeout = 30 * time.Second
		}
		breaker = circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			timeout,
		)
	}
	objectStore := objstore.NewMinioStore(minioClient, breaker)

	// Initialize dependencies (Store -> Service -> Handler)
	docService := service.NewService(st, st, st, objectStore, eventPublisher, appLogger)
	apiHandler := api.NewHandler(docService)
	appLogger.Info("Dependencies injected")

	// Rate limit uploads when enabled
	var uploadLimiter ratelimiter.RateLimiter
	if cfg.Middleware.RateLimiter.Enabled {
		uploadLimiter = ratelimiter.NewTokenBucket(
			cfg.Middleware.RateLimiter.TokenBucket.Rate,
			cfg.Middleware.RateLimiter.TokenBucket.Capacity,
		)
	}

	// Setup and start Gin router
	router := api.SetupRouter(apiHandler, cfg.Auth.JwtSecret, uploadLimiter)
	appLogger.Info("Router setup completed")

	serverAddress := cfg.App.Address
	if serverAddress == "" {
		serverAddress = ":8080"
	}
	appLogger.Info("Starting server on " + serverAddress)

	if err := router.Run(serverAddress); err != nil {
		appLogger.Fatal(err.Error())
	}
}
