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

	"github.com/pacheco20222/gestion-botiquines-backend/config"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/api"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/broker"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/redisclient"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/service"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/store"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/util"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting botiquines backend")

	tp, err := util.InitTracer("botiquines-backend", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	ingestService := service.NewIngestService(db, redisClient, eventPublisher, cfg.Business.DefaultReorderLevel)
	inventoryService := service.NewInventoryService(db, cfg.Business.DefaultReorderLevel)
	cabinetService := service.NewCabinetService(db, eventPublisher, cfg.Business.MinCompartments)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	alertConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, cfg.Kafka.ConsumerGroup)
	alertWorker := worker.NewAlertWorker(alertConsumer, db, redisClient)
	go func() {
		if err := alertWorker.Start(workerCtx); err != nil {
			log.Printf("Alert worker error: %v", err)
		}
	}()

	snapshotConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, cfg.Kafka.ConsumerGroup+"-snapshots")
	snapshotWorker := worker.NewSnapshotWorker(snapshotConsumer, db, redisClient,
		time.Duration(cfg.Business.SnapshotTTLSeconds)*time.Second)
	go func() {
		if err := snapshotWorker.Start(workerCtx); err != nil {
			log.Printf("Snapshot worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(ingestService, inventoryService, cabinetService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	alertWorker.Stop()
	snapshotWorker.Stop()

	log.Println("Server exited")
}
