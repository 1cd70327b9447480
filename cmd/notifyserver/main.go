package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"shelf-go/internal/auth"
	"shelf-go/internal/config"
	"shelf-go/internal/handlers/notifyserver"
	appKafka "shelf-go/internal/kafka"
	kafkahandlers "shelf-go/internal/kafka/handlers"
	"shelf-go/internal/logger"
	appRedis "shelf-go/internal/redis"
	"shelf-go/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zl = zl.Named("notifyserver")

	// Revocations written by the API server are only visible through Redis.
	var blacklist auth.TokenBlacklist = auth.NewMemoryTokenBlacklist()
	if cfg.Redis.Addr != "" {
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := appRedis.NewClient(pingCtx, cfg.Redis)
		cancelPing()
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.Error(err))
		}
		blacklist = appRedis.NewRedisTokenBlacklist(client)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(zl)
	go hub.Run(ctx)

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		consumer := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, zl)
		defer consumer.Close()

		logic := kafkahandlers.NewFriendEventConsumerLogic(hub, zl)
		wg.Add(1)
		go func() {
			defer wg.Done()
			topics := []string{cfg.Kafka.FriendEventsTopic}
			zl.Info("consuming friend events",
				zap.Strings("topics", topics),
				zap.String("group", cfg.Kafka.ConsumerGroup))
			if err := consumer.Consume(ctx, topics, cfg.Kafka.ConsumerGroup, logic.HandleFriendEvent); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("friend event consumer stopped", zap.Error(err))
			}
		}()
	} else {
		zl.Warn("kafka disabled, no notifications will be delivered")
	}

	wsHandler := notifyserver.NewWebSocketHandler(hub, cfg, blacklist, zl)
	r := mux.NewRouter()
	r.HandleFunc(cfg.NotifyServer.WebSocketPath, wsHandler.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	serverAddr := fmt.Sprintf("%s:%s", cfg.NotifyServer.Host, cfg.NotifyServer.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zl.Info("notify server listening",
			zap.String("addr", serverAddr),
			zap.String("path", cfg.NotifyServer.WebSocketPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("notify server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down notify server")

	cancel()
	wg.Wait()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	zl.Info("notify server stopped")
}
