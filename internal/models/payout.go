package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supported payout currencies.
const (
	CurrencyRUB = "RUB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyYEN = "YEN"
	CurrencyGBP = "GBP"
	CurrencyAUD = "AUD"
	CurrencyCNY = "CNY"
	CurrencyKZT = "KZT"
	CurrencyBYN = "BYN"
	CurrencyAED = "AED"
)

var supportedCurrencies = map[string]struct{}{
	CurrencyRUB: {}, CurrencyUSD: {}, CurrencyEUR: {}, CurrencyYEN: {},
	CurrencyGBP: {}, CurrencyAUD: {}, CurrencyCNY: {}, CurrencyKZT: {},
	CurrencyBYN: {}, CurrencyAED: {},
}

func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}

// PayoutRequest is a request to transfer funds to a recipient, tracked
// through its status lifecycle. ExternalID is the only externally
// addressable handle and never changes after creation.
type PayoutRequest struct {
	ID               int64            `json:"-"`
	ExternalID       uuid.UUID        `json:"external_id"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	RecipientDetails RecipientDetails `json:"recipient_details"`
	Status           Status           `json:"status"`
	Description      string           `json:"description"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// PayoutResult is the transient outcome of a lifecycle step. It is not
// persisted.
type PayoutResult struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Pipeline result statuses that are not record statuses.
const (
	ResultStatusSkipped = "skipped"
	ResultStatusError   = "error"
)

// PayoutFilter narrows List queries.
type PayoutFilter struct {
	Status   Status
	Currency string
}
