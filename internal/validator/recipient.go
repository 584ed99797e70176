package validator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

// VerifySubject is the request/reply subject a remote verification service
// answers on.
const VerifySubject = "recipient.verify"

const defaultVerifyTimeout = 5 * time.Second

type verifyRequest struct {
	RecipientDetails models.RecipientDetails `json:"recipient_details"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// RecipientValidator checks recipient payment details. When a NATS
// connection is configured the check is delegated to the remote verification
// service; the local structural rules answer when the service is absent or
// unreachable.
type RecipientValidator struct {
	nc      *nats.Conn
	timeout time.Duration
}

func NewRecipientValidator(nc *nats.Conn) *RecipientValidator {
	return &RecipientValidator{nc: nc, timeout: defaultVerifyTimeout}
}

func (v *RecipientValidator) Verify(ctx context.Context, details models.RecipientDetails) bool {
	if v.nc != nil {
		if valid, err := v.remoteVerify(details); err == nil {
			return valid
		} else {
			telemetry.Logger.Warn("Remote recipient verification unavailable, using local rules",
				zap.Error(err))
		}
	}
	return ValidRecipient(details)
}

func (v *RecipientValidator) remoteVerify(details models.RecipientDetails) (bool, error) {
	payload, err := json.Marshal(verifyRequest{RecipientDetails: details})
	if err != nil {
		return false, err
	}

	msg, err := v.nc.Request(VerifySubject, payload, v.timeout)
	if err != nil {
		return false, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// ValidRecipient applies the structural rules: a card needs a number of at
// least 13 characters, an account needs an account of at least 10, a wallet
// needs a wallet_id of at least 5. Anything else is invalid, including a
// missing sub-field.
func ValidRecipient(details models.RecipientDetails) bool {
	switch details.Type() {
	case models.RecipientTypeCard:
		return len(details.String("number")) >= 13
	case models.RecipientTypeAccount:
		return len(details.String("account")) >= 10
	case models.RecipientTypeWallet:
		return len(details.String("wallet_id")) >= 5
	}
	return false
}
