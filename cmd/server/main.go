package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/cache"
	"github.com/tokobuah/storefront/internal/cart"
	"github.com/tokobuah/storefront/internal/checkout"
	"github.com/tokobuah/storefront/internal/httpapi"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/payment"
	"github.com/tokobuah/storefront/internal/publisher"
	"github.com/tokobuah/storefront/internal/repository"
)

type Config struct {
	HTTPPort            string
	MongoURI            string
	MongoDBName         string
	RedisAddr           string
	RedisPassword       string
	KafkaBrokers        []string
	FirebaseProjectID   string
	FirebaseCredentials string
	MidtransServerKey   string
	MidtransProduction  bool
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:         getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		MidtransServerKey:   getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction:  getEnv("MIDTRANS_ENV", "sandbox") == "production",
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	if cfg.MidtransServerKey == "" {
		logger.Fatal("MIDTRANS_SERVER_KEY is required")
	}

	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to MongoDB")
	}
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.WithError(err).Fatal("failed to create MongoDB indexes")
	}
	logger.WithField("uri", cfg.MongoURI).Info("connected to MongoDB")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("Redis connection failed")
	}
	logger.WithField("addr", cfg.RedisAddr).Info("connected to Redis")

	authClient, err := identity.NewFirebaseAuth(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize Firebase auth")
	}

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	productRepo := repository.NewMongoProductRepository(mongoDB)
	txRepo := repository.NewMongoTransactionRepository(mongoDB)
	userRepo := repository.NewMongoUserRepository(mongoDB)
	outboxRepo := repository.NewMongoOutboxRepository(mongoDB)

	cartCache := cache.NewRedisCache(redisClient)
	cartService := cart.NewService(cartRepo, cartCache, logger)

	snapClient := payment.NewSnapClient(cfg.MidtransServerKey, cfg.MidtransProduction, logger)
	checkoutService := checkout.NewService(cartService, txRepo, outboxRepo, snapClient, logger)

	authMiddleware := identity.NewMiddleware(authClient, userRepo, logger)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Cart:     httpapi.NewCartHandler(cartService, cfg.RequestTimeout),
		Checkout: httpapi.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Products: httpapi.NewProductHandler(productRepo, cfg.RequestTimeout),
		Orders:   httpapi.NewOrdersHandler(txRepo, cfg.RequestTimeout),
		Profile:  httpapi.NewProfileHandler(userRepo, cfg.RequestTimeout),
		Auth:     authMiddleware,
	})

	pollerCtx, stopPoller := context.WithCancel(ctx)
	poller := publisher.NewOutboxPoller(outboxRepo, txRepo, logger, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("storefront server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server stopped")
}
