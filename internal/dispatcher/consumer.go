package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/interfaces"
	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

const (
	consumerGroup = "payout-dispatcher"
	lockTTL       = 30 * time.Second
)

// Consumer pulls work from the payout.created topic and drives the pipeline
// through a pool of workers. Unexpected failures force the record to failed
// and retry the whole invocation with exponential backoff.
type Consumer struct {
	brokers    string
	runner     interfaces.PipelineRunner
	redis      *redis.Client
	workers    int
	maxRetries int
	baseDelay  time.Duration
}

func NewConsumer(brokers string, runner interfaces.PipelineRunner, redisClient *redis.Client, workers int, maxRetries int, baseDelay time.Duration) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		brokers:    brokers,
		runner:     runner,
		redis:      redisClient,
		workers:    workers,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Start consumes until ctx is cancelled. Blocks.
func (c *Consumer) Start(ctx context.Context) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{c.brokers},
		Topic:    TopicPayoutCreated,
		GroupID:  consumerGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for externalID := range jobs {
				c.handle(ctx, externalID)
			}
		}(i)
	}

	telemetry.Logger.Info("Started consuming payout.created events",
		zap.Int("workers", c.workers))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		var work WorkMessage
		if err := json.Unmarshal(msg.Value, &work); err != nil {
			telemetry.Logger.Error("Error unmarshaling work message", zap.Error(err))
			continue
		}
		if work.ExternalID == "" {
			telemetry.Logger.Error("Work message without external_id")
			continue
		}

		select {
		case jobs <- work.ExternalID:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	close(jobs)
	wg.Wait()
}

func (c *Consumer) handle(ctx context.Context, externalID string) {
	if c.redis != nil {
		lockKey := fmt.Sprintf("payout_lock:%s", externalID)
		locked := c.redis.SetNX(ctx, lockKey, "1", lockTTL)
		if !locked.Val() {
			telemetry.Logger.Info("Payout already being processed",
				zap.String("external_id", externalID))
			return
		}
		defer c.redis.Del(ctx, lockKey)
	}

	c.runWithRetry(ctx, externalID)
}

// runWithRetry invokes the pipeline, forcing the record to failed and
// retrying the whole invocation on unexpected errors: up to maxRetries
// attempts after the first, delayed by baseDelay × 2^attempt.
func (c *Consumer) runWithRetry(ctx context.Context, externalID string) *models.PayoutResult {
	for attempt := 0; ; attempt++ {
		result, err := c.runOnce(ctx, externalID)
		if err == nil {
			telemetry.PipelineOutcomes.WithLabelValues(result.Status).Inc()
			telemetry.Logger.Info("Payout pipeline finished",
				zap.String("external_id", externalID),
				zap.String("status", result.Status),
				zap.Int("attempt", attempt))
			return result
		}

		telemetry.Logger.Error("Payout pipeline failed unexpectedly",
			zap.String("external_id", externalID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		// Never leave the record parked in a non-terminal state. A record
		// already terminal makes Fail a transition violation, which is fine.
		if _, failErr := c.runner.Fail(ctx, externalID, err.Error()); failErr != nil {
			telemetry.Logger.Warn("Could not force payout to failed",
				zap.String("external_id", externalID),
				zap.Error(failErr))
		}

		if attempt >= c.maxRetries {
			telemetry.PipelineOutcomes.WithLabelValues(models.ResultStatusError).Inc()
			telemetry.Logger.Error("Payout pipeline retries exhausted",
				zap.String("external_id", externalID),
				zap.Int("attempts", attempt+1))
			return &models.PayoutResult{
				ExternalID: externalID,
				Status:     string(models.StatusFailed),
				Message:    err.Error(),
			}
		}

		telemetry.DispatcherRetries.Inc()
		delay := c.baseDelay * (1 << attempt)
		telemetry.Logger.Info("Retrying payout pipeline",
			zap.String("external_id", externalID),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce executes a single pipeline invocation, converting panics and
// escaped errors into UnexpectedError.
func (c *Consumer) runOnce(ctx context.Context, externalID string) (result *models.PayoutResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &apperrors.UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = c.runner.RunPipeline(ctx, externalID)
	if err != nil {
		return nil, &apperrors.UnexpectedError{Err: err}
	}
	return result, nil
}
