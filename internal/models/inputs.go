package models

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
)

var (
	validate  = validator.New()
	minAmount = decimal.New(1, -2) // 0.01

	currencyRule  = "oneof=RUB USD EUR YEN GBP AUD CNY KZT BYN AED"
	recipientRule = "required,oneof=card account wallet"
)

// CreatePayoutInput is the inbound creation shape. Status, external id and
// timestamps are always server-assigned.
type CreatePayoutInput struct {
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	RecipientDetails RecipientDetails `json:"recipient_details"`
	Description      string           `json:"description"`
}

// Validate checks the input and applies the RUB currency default. Returns a
// ValidationError carrying field-level messages.
func (in *CreatePayoutInput) Validate() error {
	fields := map[string]string{}

	switch {
	case !in.Amount.IsPositive():
		fields["amount"] = "amount must be positive"
	case in.Amount.Cmp(minAmount) < 0:
		fields["amount"] = "amount must be at least 0.01"
	case in.Amount.Exponent() < -2:
		fields["amount"] = "amount must have at most 2 decimal places"
	}

	if in.Currency == "" {
		in.Currency = CurrencyRUB
	} else if err := validate.Var(in.Currency, currencyRule); err != nil {
		fields["currency"] = "currency must be one of: RUB, USD, EUR, YEN, GBP, AUD, CNY, KZT, BYN, AED"
	}

	if in.RecipientDetails == nil {
		fields["recipient_details"] = "recipient details are required"
	} else if err := validate.Var(in.RecipientDetails.Type(), recipientRule); err != nil {
		fields["recipient_details"] = "type must be one of: card, account, wallet"
	}

	if len(fields) > 0 {
		return &apperrors.ValidationError{Message: "invalid payout request", Fields: fields}
	}
	return nil
}

// UpdatePayoutInput is the inbound update shape. Only status and description
// can be changed, and status changes follow the transition table.
type UpdatePayoutInput struct {
	Status      *Status `json:"status"`
	Description *string `json:"description"`
}

func (in *UpdatePayoutInput) Validate() error {
	if in.Status == nil && in.Description == nil {
		return apperrors.NewFieldError("status", "at least one of status or description is required")
	}
	if in.Status != nil && !in.Status.Valid() {
		return apperrors.NewFieldError("status", "unknown status "+string(*in.Status))
	}
	return nil
}
