package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payout-service/internal/models"
)

// MutateFunc inspects a payout record locked for update and returns the
// columns to persist ("status", "description"). Returning no columns commits
// without writing anything. Returning an error rolls the transaction back
// and surfaces the error to the caller.
type MutateFunc func(p *models.PayoutRequest) ([]string, error)

// PayoutRepository is the contract for payout record storage. Every
// mutation path acquires an exclusive row lock for the duration of its
// transaction; plain reads never lock.
type PayoutRepository interface {
	Create(ctx context.Context, in *models.CreatePayoutInput) (*models.PayoutRequest, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.PayoutRequest, error)
	List(ctx context.Context, filter models.PayoutFilter) ([]*models.PayoutRequest, error)
	Mutate(ctx context.Context, externalID string, fn MutateFunc) (*models.PayoutRequest, error)
	Delete(ctx context.Context, externalID string) error
}

// RecipientVerifier checks recipient payment details. Invalid details are a
// boolean outcome, never an error.
type RecipientVerifier interface {
	Verify(ctx context.Context, details models.RecipientDetails) bool
}

// PaymentGateway submits a payout to the external settlement network and
// reports (accepted, message). Implementations may take up to their
// configured latency bound to answer.
type PaymentGateway interface {
	Submit(ctx context.Context, amount decimal.Decimal, currency string, details models.RecipientDetails) (bool, string)
}

// EventPublisher hands work and audit events to the message broker.
type EventPublisher interface {
	PayoutCreated(ctx context.Context, externalID string) error
	StatusChanged(ctx context.Context, externalID string, from, to models.Status) error
}

// PipelineRunner is the orchestrator surface the dispatcher drives.
type PipelineRunner interface {
	RunPipeline(ctx context.Context, externalID string) (*models.PayoutResult, error)
	Fail(ctx context.Context, externalID, reason string) (*models.PayoutResult, error)
}
