package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

const (
	msgSubmitted        = "payment submitted successfully"
	msgDeclined         = "payment gateway declined: insufficient funds"
	msgContextCancelled = "gateway call cancelled"
)

// Client simulates the external settlement network: it answers after a
// randomized delay within the configured bounds and declines a configured
// fraction of submissions. A real integration replaces it behind the
// interfaces.PaymentGateway contract.
type Client struct {
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewClient(minLatency, maxLatency time.Duration, failureRate float64) *Client {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &Client{
		minLatency:  minLatency,
		maxLatency:  maxLatency,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Submit sends the payout to the settlement network and reports
// (accepted, message).
func (c *Client) Submit(ctx context.Context, amount decimal.Decimal, currency string, details models.RecipientDetails) (bool, string) {
	c.mu.Lock()
	delay := c.minLatency
	if span := c.maxLatency - c.minLatency; span > 0 {
		delay += time.Duration(c.rng.Int63n(int64(span)))
	}
	declined := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	start := time.Now()
	select {
	case <-ctx.Done():
		return false, msgContextCancelled
	case <-time.After(delay):
	}
	telemetry.GatewayLatency.Observe(time.Since(start).Seconds())

	if declined {
		return false, msgDeclined
	}

	telemetry.Logger.Info("Payment gateway accepted transfer",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("currency", currency),
		zap.String("recipient_type", details.Type()),
	)
	return true, msgSubmitted
}
