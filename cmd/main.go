package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail_service/config"
	"retail_service/internal/delivery"
	"retail_service/internal/notify"
	"retail_service/internal/repository"
	"retail_service/internal/repository/redisrepo"
	"retail_service/internal/usecase"
	"retail_service/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", cfg.LogLevel, logLevel.String())
	}
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.Info("Starting Retail Service...")

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connection established.")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	pingCancel()
	defer redisClient.Close()
	logger.Info("Redis connection established.")

	notifier := notify.NewKafkaNotifier(notify.Config{
		Brokers:         cfg.KafkaBrokers,
		OrderTopic:      cfg.OrderTopic,
		StockTopic:      cfg.StockTopic,
		DeadLetterTopic: cfg.DeadLetterTopic,
		BufferSize:      cfg.NotifyBufferSize,
		MaxAttempts:     cfg.NotifyMaxAttempts,
		RetryBackoff:    time.Duration(cfg.NotifyRetryBackoff) * time.Millisecond,
	}, logger)
	defer notifier.Close()
	logger.Infof("Kafka notifier initialized for brokers %v", cfg.KafkaBrokers)

	// --- Dependency Injection ---
	productRepo := repository.NewPostgresProductRepository(database, logger)
	customerRepo := repository.NewPostgresCustomerRepository(database, logger)
	orderRepo := repository.NewPostgresOrderRepository(database, logger)
	cartStore := redisrepo.NewRedisCartStore(redisClient, logger)
	logger.Info("Repositories initialized.")

	productUseCase := usecase.NewProductUseCase(productRepo, notifier, logger)
	customerUseCase := usecase.NewCustomerUseCase(customerRepo, logger)
	cartUseCase := usecase.NewCartUseCase(cartStore, productRepo, logger)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, productRepo, customerRepo, cartStore, notifier, logger)
	logger.Info("Use cases initialized.")

	productHandler := delivery.NewProductHandler(productUseCase, logger)
	customerHandler := delivery.NewCustomerHandler(customerUseCase, logger)
	cartHandler := delivery.NewCartHandler(cartUseCase, logger)
	orderHandler := delivery.NewOrderHandler(orderUseCase, cartUseCase, logger)
	logger.Info("Handlers initialized.")

	router := gin.Default()
	router.RedirectTrailingSlash = false
	productHandler.RegisterRoutes(router)
	customerHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)
	logger.Info("Routes registered.")

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("Starting server on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := notifier.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("Service stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Service stopped.")
}
