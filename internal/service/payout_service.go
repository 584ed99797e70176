package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/interfaces"
	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

// PayoutService carries the synchronous boundary use-cases: create, read,
// manual update and delete.
type PayoutService struct {
	repo   interfaces.PayoutRepository
	events interfaces.EventPublisher
}

func NewPayoutService(repo interfaces.PayoutRepository, events interfaces.EventPublisher) *PayoutService {
	return &PayoutService{repo: repo, events: events}
}

// Create validates the input, persists the payout as pending and enqueues
// pipeline work. The enqueue happens strictly after repo.Create has
// returned, i.e. after the creating transaction committed, so a worker can
// never race a lock the creator still holds.
func (s *PayoutService) Create(ctx context.Context, in *models.CreatePayoutInput) (*models.PayoutRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	externalID := p.ExternalID.String()
	if s.events != nil {
		if err := s.events.PayoutCreated(ctx, externalID); err != nil {
			// The record exists; operators can re-drive it. Creation is not
			// rolled back for a broker hiccup.
			telemetry.Logger.Error("Failed to enqueue payout processing",
				zap.String("external_id", externalID),
				zap.Error(err))
		}
	}

	telemetry.PayoutsCreated.Inc()
	telemetry.Logger.Info("Payout created",
		zap.String("external_id", externalID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("currency", p.Currency))
	return p, nil
}

func (s *PayoutService) Get(ctx context.Context, externalID string) (*models.PayoutRequest, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *PayoutService) List(ctx context.Context, filter models.PayoutFilter) ([]*models.PayoutRequest, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a manual status and/or description change under the row
// lock. Status changes go through the transition table; a record already in
// a terminal status rejects every change.
func (s *PayoutService) Update(ctx context.Context, externalID string, in *models.UpdatePayoutInput) (*models.PayoutRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var from, to models.Status
	p, err := s.repo.Mutate(ctx, externalID, func(p *models.PayoutRequest) ([]string, error) {
		var columns []string

		if in.Status != nil {
			if err := models.ValidateTransition(p.Status, *in.Status); err != nil {
				return nil, err
			}
			from, to = p.Status, *in.Status
			p.Status = *in.Status
			columns = append(columns, "status")
		} else if p.Status.Terminal() {
			return nil, &apperrors.ConflictError{
				Reason: fmt.Sprintf("payout in terminal status %q cannot be modified", p.Status),
			}
		}

		if in.Description != nil {
			p.Description = *in.Description
			columns = append(columns, "description")
		}

		return columns, nil
	})
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		if s.events != nil {
			if err := s.events.StatusChanged(ctx, externalID, from, to); err != nil {
				telemetry.Logger.Error("Failed to publish status change event",
					zap.String("external_id", externalID),
					zap.Error(err))
			}
		}
		telemetry.Logger.Info("Payout status updated manually",
			zap.String("external_id", externalID),
			zap.String("from_status", string(from)),
			zap.String("to_status", string(to)))
	}
	return p, nil
}

// Delete removes a payout, permitted only while it is still pending.
func (s *PayoutService) Delete(ctx context.Context, externalID string) error {
	if err := s.repo.Delete(ctx, externalID); err != nil {
		return err
	}
	telemetry.Logger.Info("Payout deleted", zap.String("external_id", externalID))
	return nil
}
