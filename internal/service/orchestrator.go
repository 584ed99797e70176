package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/interfaces"
	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

// ReasonInvalidRecipient is the fixed failure reason recorded when recipient
// validation rejects the payout.
const ReasonInvalidRecipient = "invalid recipient details"

const defaultFailureMessage = "payout processing failed"

// Orchestrator drives a single payout through its lifecycle. Each operation
// acquires the record's row lock only for the mutation it performs; the lock
// is never held across the recipient validation or the gateway call.
type Orchestrator struct {
	repo     interfaces.PayoutRepository
	verifier interfaces.RecipientVerifier
	gateway  interfaces.PaymentGateway
	events   interfaces.EventPublisher
}

func NewOrchestrator(
	repo interfaces.PayoutRepository,
	verifier interfaces.RecipientVerifier,
	gateway interfaces.PaymentGateway,
	events interfaces.EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		verifier: verifier,
		gateway:  gateway,
		events:   events,
	}
}

// StartProcessing transitions pending → processing under the row lock. A
// record that is no longer pending is reported as a no-op, not an error:
// this is the idempotency guard against duplicate dispatch.
func (o *Orchestrator) StartProcessing(ctx context.Context, externalID string) (*models.PayoutRequest, bool, error) {
	started := false
	p, err := o.repo.Mutate(ctx, externalID, func(p *models.PayoutRequest) ([]string, error) {
		if p.Status != models.StatusPending {
			return nil, nil
		}
		if err := models.ValidateTransition(p.Status, models.StatusProcessing); err != nil {
			return nil, err
		}
		p.Status = models.StatusProcessing
		started = true
		return []string{"status"}, nil
	})
	if err != nil {
		return nil, false, err
	}

	if started {
		o.publishStatusChange(ctx, externalID, models.StatusPending, models.StatusProcessing)
		telemetry.Logger.Info("Payout processing started",
			zap.String("external_id", externalID))
	} else {
		telemetry.Logger.Warn("Payout already handled, skipping",
			zap.String("external_id", externalID),
			zap.String("status", string(p.Status)))
	}
	return p, started, nil
}

// Complete transitions the payout to completed under the row lock. The
// caller is expected to have reached processing via StartProcessing; the
// transition table still guards every write.
func (o *Orchestrator) Complete(ctx context.Context, externalID string) (*models.PayoutResult, error) {
	var from models.Status
	_, err := o.repo.Mutate(ctx, externalID, func(p *models.PayoutRequest) ([]string, error) {
		from = p.Status
		if err := models.ValidateTransition(p.Status, models.StatusCompleted); err != nil {
			return nil, err
		}
		p.Status = models.StatusCompleted
		return []string{"status"}, nil
	})
	if err != nil {
		return nil, err
	}

	o.publishStatusChange(ctx, externalID, from, models.StatusCompleted)
	telemetry.Logger.Info("Payout completed", zap.String("external_id", externalID))

	return &models.PayoutResult{
		Success:    true,
		ExternalID: externalID,
		Status:     string(models.StatusCompleted),
		Message:    "payout completed successfully",
	}, nil
}

// Fail transitions the payout to failed under the row lock and records the
// reason in the returned result.
func (o *Orchestrator) Fail(ctx context.Context, externalID, reason string) (*models.PayoutResult, error) {
	if reason == "" {
		reason = defaultFailureMessage
	}

	var from models.Status
	_, err := o.repo.Mutate(ctx, externalID, func(p *models.PayoutRequest) ([]string, error) {
		from = p.Status
		if err := models.ValidateTransition(p.Status, models.StatusFailed); err != nil {
			return nil, err
		}
		p.Status = models.StatusFailed
		return []string{"status"}, nil
	})
	if err != nil {
		return nil, err
	}

	o.publishStatusChange(ctx, externalID, from, models.StatusFailed)
	telemetry.Logger.Warn("Payout failed",
		zap.String("external_id", externalID),
		zap.String("reason", reason))

	return &models.PayoutResult{
		Success:    false,
		ExternalID: externalID,
		Status:     string(models.StatusFailed),
		Message:    reason,
	}, nil
}

// RunPipeline is the asynchronous end-to-end flow:
// start → validate recipient → submit to gateway → finalize. Each step's
// outcome alone determines the next; retries belong to the dispatcher.
func (o *Orchestrator) RunPipeline(ctx context.Context, externalID string) (*models.PayoutResult, error) {
	p, started, err := o.StartProcessing(ctx, externalID)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			// The record can legitimately be gone: deleted while it was
			// still pending, then redelivered by the at-least-once queue.
			telemetry.Logger.Warn("Payout not found, skipping pipeline",
				zap.String("external_id", externalID))
			return &models.PayoutResult{
				ExternalID: externalID,
				Status:     models.ResultStatusSkipped,
				Message:    "payout not found",
			}, nil
		}
		return nil, err
	}
	if !started {
		return &models.PayoutResult{
			ExternalID: externalID,
			Status:     models.ResultStatusSkipped,
			Message:    fmt.Sprintf("already handled, status: %s", p.Status),
		}, nil
	}

	if !o.verifier.Verify(ctx, p.RecipientDetails) {
		return o.Fail(ctx, externalID, ReasonInvalidRecipient)
	}

	accepted, message := o.gateway.Submit(ctx, p.Amount, p.Currency, p.RecipientDetails)
	if !accepted {
		return o.Fail(ctx, externalID, message)
	}

	return o.Complete(ctx, externalID)
}

func (o *Orchestrator) publishStatusChange(ctx context.Context, externalID string, from, to models.Status) {
	if o.events == nil {
		return
	}
	if err := o.events.StatusChanged(ctx, externalID, from, to); err != nil {
		telemetry.Logger.Error("Failed to publish status change event",
			zap.String("external_id", externalID),
			zap.Error(err))
	}
}
