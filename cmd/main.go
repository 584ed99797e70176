package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/api"
	"github.com/akylbek/payment-system/payout-service/internal/config"
	"github.com/akylbek/payment-system/payout-service/internal/dispatcher"
	"github.com/akylbek/payment-system/payout-service/internal/gateway"
	"github.com/akylbek/payment-system/payout-service/internal/handlers"
	"github.com/akylbek/payment-system/payout-service/internal/repository"
	"github.com/akylbek/payment-system/payout-service/internal/service"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
	"github.com/akylbek/payment-system/payout-service/internal/validator"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("payout-service"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payout Service")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repository
	repo := repository.NewPayoutRepository(db)
	if err := repo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to NATS (optional: recipient verification falls back to local
	// rules when no verification service is configured)
	var nc *nats.Conn
	if cfg.NatsURL != "" {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Warn("Failed to connect to NATS, using local recipient rules", zap.Error(err))
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	// Kafka publisher: payout.created work queue + payout.status.changed audit stream
	publisher := dispatcher.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	// Initialize lifecycle components
	recipientValidator := validator.NewRecipientValidator(nc)
	gatewayClient := gateway.NewClient(cfg.GatewayMinLatency, cfg.GatewayMaxLatency, cfg.GatewayFailureRate)
	orchestrator := service.NewOrchestrator(repo, recipientValidator, gatewayClient, publisher)
	payoutService := service.NewPayoutService(repo, publisher)

	// Start the dispatcher worker pool
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	consumer := dispatcher.NewConsumer(cfg.KafkaBrokers, orchestrator, redisClient,
		cfg.WorkerCount, cfg.MaxRetries, cfg.RetryBaseDelay)
	go consumer.Start(consumerCtx)

	// Setup router and HTTP server
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	r := api.NewRouter(payoutHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payout Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
