package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	"shelf-go/internal/handlers/apiserver"
	appKafka "shelf-go/internal/kafka"
	"shelf-go/internal/logger"
	"shelf-go/internal/mailer"
	"shelf-go/internal/middleware"
	appRedis "shelf-go/internal/redis"
	"shelf-go/internal/services"
	"shelf-go/internal/shelftypes"
	"shelf-go/internal/storage"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zl = zl.Named("apiserver")

	// 2. Database
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		zl.Fatal("failed to initialise database", zap.Error(err))
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		zl.Fatal("failed to migrate tables", zap.Error(err))
	}
	zl.Info("database ready", zap.String("type", cfg.Database.Type))

	// 3. Token blacklist: Redis when configured, in-memory otherwise
	blacklist := newTokenBlacklist(cfg, zl)

	// 4. Friend event publisher
	var producer appKafka.MessageProducer = appKafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka, zl)
		if err != nil {
			zl.Fatal("failed to create kafka producer", zap.Error(err))
		}
		zl.Info("kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		zl.Info("kafka disabled, friend events are not published")
	}
	defer producer.Close()
	publisher := appKafka.NewFriendEventPublisher(producer, cfg.Kafka.FriendEventsTopic)

	// 5. Repositories and services
	userRepo := storage.NewGormUserRepository(db)
	bookRepo := storage.NewGormBookRepository(db)

	authService := services.NewAuthService(userRepo, blacklist, mailer.New(cfg.Mail, zl), cfg.Auth, zl)
	userService := services.NewUserService(userRepo, cfg.Friends.SearchLimit)
	friendService := services.NewFriendService(db, userRepo, bookRepo, publisher, zl)
	bookService := services.NewBookService(bookRepo)

	var storageService shelftypes.StorageService
	switch cfg.Storage.Type {
	case "local":
		storageService, err = storage.NewLocalStorageService(cfg.Storage)
		if err != nil {
			zl.Fatal("failed to initialise local storage", zap.Error(err))
		}
	default:
		zl.Fatal("unsupported storage type", zap.String("type", cfg.Storage.Type))
	}

	// 6. Routes
	router := apiserver.NewRouter(apiserver.RouterConfig{
		Auth:           apiserver.NewAuthHandler(authService, zl),
		User:           apiserver.NewUserHandler(userService, zl),
		Friend:         apiserver.NewFriendHandler(friendService, zl),
		Book:           apiserver.NewBookHandler(bookService, zl),
		Upload:         apiserver.NewUploadHandler(storageService, cfg.Storage, zl),
		AuthMiddleware: middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, blacklist),
		HealthCheck:    pingDB(db),
		UploadsURL:     cfg.Storage.BaseURL,
		UploadsDir:     cfg.Storage.LocalPath,
		Logger:         zl,
	})

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	handler := handlers.CORS(corsOptions...)(router)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(zl)))(handler)
	if cfg.IsDevelopment() {
		handler = handlers.CombinedLoggingHandler(os.Stdout, handler)
	}

	// 7. Serve with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zl.Info("api server listening", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("api server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down api server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	zl.Info("api server stopped")
}

func newTokenBlacklist(cfg config.Config, zl *zap.Logger) auth.TokenBlacklist {
	if cfg.Redis.Addr == "" {
		zl.Warn("redis not configured, revoked tokens are kept in memory")
		return auth.NewMemoryTokenBlacklist()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := appRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		if !cfg.IsDevelopment() {
			zl.Fatal("failed to connect to redis", zap.Error(err))
		}
		zl.Warn("redis unavailable, revoked tokens are kept in memory", zap.Error(err))
		return auth.NewMemoryTokenBlacklist()
	}
	zl.Info("redis token blacklist ready", zap.String("addr", cfg.Redis.Addr))
	return appRedis.NewRedisTokenBlacklist(client)
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
