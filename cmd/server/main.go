package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/cache"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/cleanup"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/config"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/delhivery"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/events"
	h "github.com/AyuTechLive/e-commerce-web-keywellness/internal/http"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/phonepe"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	if err := repository.CreateIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	ledger := repository.NewMongoLedger(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	carrierCache := cache.NewRedisCache(redisClient)

	gateway := phonepe.NewClient(cfg.PhonePe, cfg.OutboundTimeout)
	carrier := delhivery.NewClient(cfg.Delhivery, cfg.OutboundTimeout, cfg.ManifestTimeout)

	svc := service.NewOrderService(ledger, gateway, carrier, carrierCache, cfg)

	publisher := events.NewPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	consumer := events.NewConsumer(svc, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
	defer consumer.Close()

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go consumer.Run(bgCtx)

	cleanupJob := cleanup.NewJob(ledger, cfg.RetentionWindow, cfg.CleanupInterval, cfg.CleanupBatchSize)
	go cleanupJob.Run(bgCtx)

	router := h.NewRouter(svc, publisher, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down checkout service...")
	bgCancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	log.Println("Checkout service stopped")
}
